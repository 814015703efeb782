package app_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"testseries-service/internal/app"
	"testseries-service/internal/domain"
	"testseries-service/internal/infra/memory"
)

type stubUploader struct {
	calls int
	err   error
	names []string
}

func (u *stubUploader) Upload(_ context.Context, filename, _ string, body io.Reader) (app.UploadResult, error) {
	u.calls++
	if u.err != nil {
		return app.UploadResult{}, u.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return app.UploadResult{}, err
	}
	u.names = append(u.names, filename)
	return app.UploadResult{URL: "https://cdn.example.com/" + filename, Filename: filename}, nil
}

func newPaymentService(store *memory.Store, uploader app.ProofUploader) *app.PaymentService {
	return app.NewPaymentService(store, store, uploader, memory.NewSubmissionGuard(),
		app.PaymentConfig{GuardTTL: time.Minute},
		app.WithClock(func() time.Time { return testNow }),
		app.WithPrices(map[domain.Series]int64{domain.SeriesIOE: 100, domain.SeriesCEE: 100, domain.SeriesLive: 50}),
	)
}

func submission(series string, body string) app.PaymentSubmission {
	return app.PaymentSubmission{
		Series:      series,
		FileName:    "receipt.PNG",
		ContentType: "image/png",
		Body:        strings.NewReader(body),
	}
}

func TestSubmitPaymentWritesPendingRequest(t *testing.T) {
	store := memory.NewStore()
	uploader := &stubUploader{}
	svc := newPaymentService(store, uploader)
	user := domain.User{ID: "u1", DisplayName: "Sita", Email: "sita@example.com"}

	req, err := svc.Submit(context.Background(), user, submission("live", "png-bytes"))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if req.Status != domain.PaymentPending || req.Series != domain.SeriesLive || req.Amount != 50 {
		t.Fatalf("unexpected request %+v", req)
	}
	if req.Method != "eSewa" || req.SubmissionSource != "web" || !req.RequestedAt.Equal(testNow) {
		t.Fatalf("unexpected metadata %+v", req)
	}
	if !strings.HasSuffix(req.ProofFileName, ".png") || req.ProofURL == "" {
		t.Fatalf("unexpected proof %+v", req)
	}
	stored, err := store.GetPayment(context.Background(), req.ID)
	if err != nil || stored.UserEmail != "sita@example.com" {
		t.Fatalf("expected stored request, got %+v err=%v", stored, err)
	}
}

func TestSubmitPaymentUploadFailureWritesNothing(t *testing.T) {
	store := memory.NewStore()
	uploader := &stubUploader{err: errors.New("endpoint said no")}
	svc := newPaymentService(store, uploader)
	user := domain.User{ID: "u1"}

	_, err := svc.Submit(context.Background(), user, submission("IOE", "png"))
	if !errors.Is(err, domain.ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	all, _ := store.ListPayments(context.Background())
	if len(all) != 0 {
		t.Fatalf("expected no payment written, got %d", len(all))
	}

	// the guard is released so the student can retry
	uploader.err = nil
	if _, err := svc.Submit(context.Background(), user, submission("IOE", "png")); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestSubmitPaymentRejectsDuplicates(t *testing.T) {
	store := memory.NewStore()
	uploader := &stubUploader{}
	svc := newPaymentService(store, uploader)
	user := domain.User{ID: "u1"}

	if _, err := svc.Submit(context.Background(), user, submission("CEE", "same")); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), user, submission("CEE", "same")); !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if uploader.calls != 1 {
		t.Fatalf("expected single upload, got %d", uploader.calls)
	}
	if _, err := svc.Submit(context.Background(), user, submission("CEE", "different")); err != nil {
		t.Fatalf("different proof: %v", err)
	}
}

func TestSubmitPaymentValidates(t *testing.T) {
	svc := newPaymentService(memory.NewStore(), &stubUploader{})
	user := domain.User{ID: "u1"}

	if _, err := svc.Submit(context.Background(), user, submission("GRE", "x")); !errors.Is(err, domain.ErrInvalidSeries) {
		t.Fatalf("expected ErrInvalidSeries, got %v", err)
	}
	pdf := submission("IOE", "x")
	pdf.ContentType = "application/pdf"
	var verr *domain.ValidationError
	if _, err := svc.Submit(context.Background(), user, pdf); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	empty := submission("IOE", "")
	empty.Body = bytes.NewReader(nil)
	if _, err := svc.Submit(context.Background(), user, empty); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty body, got %v", err)
	}
}

func seedPayments(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	users := []domain.User{
		{ID: "u1", Email: "Ram@Example.com", DisplayName: "Ram", IOEAccess: true, LastLogin: testNow},
		{ID: "u2", Email: "sita@example.com", DisplayName: "Sita"},
	}
	for _, u := range users {
		_ = store.SaveUser(ctx, u)
	}
	payments := []domain.PaymentRequest{
		{ID: "p1", UserID: "u1", UserName: "Ram", UserEmail: "ram@example.com", Series: domain.SeriesIOE, Amount: 100, RequestedAt: testNow.Add(-time.Hour)},
		{ID: "p2", UserID: "u2", UserName: "Sita", UserEmail: "sita@example.com", Series: domain.SeriesLive, Amount: 50, RequestedAt: testNow},
		{ID: "p3", UserID: "u3", UserName: "Hari", UserEmail: "hari@example.com", Series: domain.SeriesLive, Amount: 50, RequestedAt: testNow.Add(-2 * time.Hour)},
	}
	for _, p := range payments {
		p.Status = domain.PaymentPending
		_ = store.CreatePayment(ctx, p)
	}
}

func TestListPaymentsDecoratesFiltersAndSorts(t *testing.T) {
	store := memory.NewStore()
	seedPayments(t, store)
	svc := newPaymentService(store, &stubUploader{})
	ctx := context.Background()

	all, err := svc.ListPayments(ctx, app.PaymentQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if all.Total != 3 || all.Counts["LIVE"] != 2 || all.Counts["IOE"] != 1 || all.Counts["all"] != 3 {
		t.Fatalf("unexpected counts %+v", all)
	}
	if all.Payments[0].ID != "p1" || !all.Payments[0].HasAccessed || all.Payments[0].LastAccessDate == nil {
		t.Fatalf("expected p1 first with access, got %+v", all.Payments[0])
	}
	if all.Payments[1].HasAccessed {
		t.Fatalf("expected sita without access")
	}

	live, _ := svc.ListPayments(ctx, app.PaymentQuery{Series: "live", SortBy: "requestedAt", Desc: true})
	if live.Total != 2 || live.Payments[0].ID != "p2" {
		t.Fatalf("unexpected live listing %+v", live.Payments)
	}

	search, _ := svc.ListPayments(ctx, app.PaymentQuery{Search: "HARI"})
	if search.Total != 1 || search.Payments[0].ID != "p3" {
		t.Fatalf("unexpected search result %+v", search.Payments)
	}

	byAccess, _ := svc.ListPayments(ctx, app.PaymentQuery{SortBy: "accessStatus", Desc: true})
	if byAccess.Payments[0].ID != "p1" {
		t.Fatalf("expected accessed user first, got %+v", byAccess.Payments[0])
	}
}

func TestApproveAndReject(t *testing.T) {
	store := memory.NewStore()
	seedPayments(t, store)
	svc := newPaymentService(store, &stubUploader{})
	ctx := context.Background()

	if _, err := svc.Approve(ctx, "p2"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	u, _ := store.GetUser(ctx, "u2")
	if !u.LiveTestAccess {
		t.Fatalf("expected live access granted")
	}
	rejected, err := svc.Reject(ctx, "p3")
	if err != nil || rejected.Status != domain.PaymentRejected {
		t.Fatalf("reject: %+v %v", rejected, err)
	}
	if _, err := svc.Reject(ctx, "nope"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}
