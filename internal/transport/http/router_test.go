package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"testseries-service/internal/app"
	"testseries-service/internal/auth"
	"testseries-service/internal/domain"
	"testseries-service/internal/i18n"
	"testseries-service/internal/infra/memory"
	"testseries-service/internal/infra/upload"
)

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	server   *httptest.Server
	store    *memory.Store
	verifier *auth.JWTVerifier
}

func question(id, correct string) domain.Question {
	return domain.Question{ID: id, Text: "Question " + id, Option1: "A", Option2: "B", Option3: "C", Option4: "D", CorrectOption: correct, Marks: 1}
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatalf("i18n: %v", err)
	}
	ctx := context.Background()
	store := memory.NewStore()
	quizzes := []domain.Quiz{
		{ID: "ioe-2", Details: domain.Details{Title: "Set 2", Grade: "IOE", TimeLimit: 60}, Questions: []domain.Question{question("q1", "option1")}, CreatedAt: testNow.Add(-2 * time.Hour)},
		{ID: "ioe-1", Details: domain.Details{Title: "set_1", Grade: "IOE", TimeLimit: 60}, Questions: []domain.Question{question("q1", "option2")}, CreatedAt: testNow.Add(-time.Hour)},
		{ID: "live-now", Type: domain.QuizTypeLive, Details: domain.Details{Title: "Live 1", Grade: "IOE", TimeLimit: 30, StartTime: "2025-06-01T09:00", EndTime: "2025-06-01T11:00"}, Questions: []domain.Question{question("q1", "option3")}},
		{ID: "live-next", Type: domain.QuizTypeLive, Details: domain.Details{Title: "Live 2", Grade: "IOE", TimeLimit: 30, StartTime: "2025-06-02T10:00", EndTime: "2025-06-02T11:00"}, Questions: []domain.Question{question("q1", "option3")}, CreatedAt: testNow},
	}
	for _, q := range quizzes {
		if err := store.SaveQuiz(ctx, q); err != nil {
			t.Fatalf("seed quiz: %v", err)
		}
	}
	_ = store.SaveUser(ctx, domain.User{ID: "student", Email: "sita@example.com", DisplayName: "Sita"})
	_ = store.SaveUser(ctx, domain.User{ID: "admin", Email: "admin@example.com", Role: domain.RoleAdmin})

	uploads, err := upload.NewFSStore(t.TempDir(), "http://uploads.test")
	if err != nil {
		t.Fatalf("fs store: %v", err)
	}
	opts := []app.Option{
		app.WithClock(func() time.Time { return testNow }),
		app.WithLocation(time.UTC),
		app.WithPrices(map[domain.Series]int64{domain.SeriesIOE: 100, domain.SeriesCEE: 100, domain.SeriesLive: 50}),
	}
	cache := memory.NewQuizRepository(store, time.Minute)
	quizSvc := app.NewQuizService(cache, store, store, opts...)
	verifier := auth.NewJWTVerifier("test-secret", time.Hour)
	handler := NewRouter(Services{
		Accounts: app.NewAccountService(store, opts...),
		Quizzes:  quizSvc,
		Payments: app.NewPaymentService(store, store, uploads, memory.NewSubmissionGuard(), app.PaymentConfig{GuardTTL: time.Minute}, opts...),
		Admin:    app.NewAdminService(store, cache, store, store, opts...),
		Live:     app.NewLiveWatcher(quizSvc, 20*time.Millisecond, time.Second),
		Verifier: verifier,
		Uploads:  uploads,
	}, RouterConfig{MaxUploadBytes: 1 << 20})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return testEnv{server: srv, store: store, verifier: verifier}
}

func (e testEnv) token(t *testing.T, uid, role string) string {
	t.Helper()
	tok, err := e.verifier.Issue(domain.Identity{UID: uid, Role: role})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

func (e testEnv) do(t *testing.T, method, path, token string, body io.Reader, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	var e errResp
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode error body %s: %v", data, err)
	}
	return e.Error
}

func TestUnauthenticatedIsLocalized(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/api/me", "", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized || errorMessage(t, body) != "Please sign in to continue." {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, body)
	}
	resp, body = env.do(t, http.MethodGet, "/api/me", "", nil, map[string]string{"Accept-Language": "ne"})
	if resp.StatusCode != http.StatusUnauthorized || errorMessage(t, body) == "Please sign in to continue." {
		t.Fatalf("expected nepali message, got %s", body)
	}
}

func TestSeriesListingAndLockedQuiz(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, "student", "")

	resp, body := env.do(t, http.MethodGet, "/api/series/ioe", tok, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("listing: %d %s", resp.StatusCode, body)
	}
	var listing app.SeriesListing
	if err := json.Unmarshal(body, &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Unlocked || len(listing.Quizzes) != 2 || listing.Quizzes[0].NormalizedTitle != "Set-1" {
		t.Fatalf("unexpected listing %+v", listing)
	}

	resp, body = env.do(t, http.MethodGet, "/api/quizzes/ioe-1", tok, nil, nil)
	if resp.StatusCode != http.StatusForbidden || !strings.Contains(errorMessage(t, body), "Purchase this series") {
		t.Fatalf("expected locked, got %d %s", resp.StatusCode, body)
	}

	resp, _ = env.do(t, http.MethodGet, "/api/series/GRE", tok, nil, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown series, got %d", resp.StatusCode)
	}
}

func proofBody(t *testing.T, series string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("series", series)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="receipt.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestPaymentApprovalUnlocksQuiz(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "student", "")
	admin := env.token(t, "admin", "")

	body, ct := proofBody(t, "IOE")
	resp, data := env.do(t, http.MethodPost, "/api/payments", student, body, map[string]string{"Content-Type": ct})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: %d %s", resp.StatusCode, data)
	}
	var submitted paymentResponse
	_ = json.Unmarshal(data, &submitted)
	if submitted.Payment.Status != domain.PaymentPending || !strings.HasPrefix(submitted.Payment.ProofURL, "http://uploads.test/uploads/") {
		t.Fatalf("unexpected payment %+v", submitted.Payment)
	}

	body, ct = proofBody(t, "IOE")
	resp, _ = env.do(t, http.MethodPost, "/api/payments", student, body, map[string]string{"Content-Type": ct})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected duplicate rejected, got %d", resp.StatusCode)
	}

	resp, _ = env.do(t, http.MethodPost, "/api/admin/payments/"+submitted.Payment.ID+"/approve", student, nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected student forbidden, got %d", resp.StatusCode)
	}
	resp, data = env.do(t, http.MethodPost, "/api/admin/payments/"+submitted.Payment.ID+"/approve", admin, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("approve: %d %s", resp.StatusCode, data)
	}

	resp, data = env.do(t, http.MethodGet, "/api/quizzes/ioe-1", student, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start: %d %s", resp.StatusCode, data)
	}
	if bytes.Contains(data, []byte("correctOption")) || bytes.Contains(data, []byte("option2")) {
		t.Fatalf("paper leaks answers: %s", data)
	}

	resp, data = env.do(t, http.MethodPost, "/api/quizzes/ioe-1/results", student,
		strings.NewReader(`{"answers":{"q1":"2"}}`), map[string]string{"Content-Type": "application/json"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit result: %d %s", resp.StatusCode, data)
	}
	resp, data = env.do(t, http.MethodGet, "/api/quizzes/ioe-1/leaderboard", student, nil, nil)
	var lb domain.Leaderboard
	_ = json.Unmarshal(data, &lb)
	if resp.StatusCode != http.StatusOK || len(lb.Entries) != 1 || lb.Entries[0].Name != "Sita" || lb.Entries[0].Score != 1 {
		t.Fatalf("unexpected leaderboard %d %s", resp.StatusCode, data)
	}
}

func TestUpcomingLiveQuizExplainsWhen(t *testing.T) {
	env := newTestEnv(t)
	u, _ := env.store.GetUser(context.Background(), "student")
	_ = env.store.SaveUser(context.Background(), u.WithAccess(domain.SeriesLive, true))
	tok := env.token(t, "student", "")

	resp, data := env.do(t, http.MethodGet, "/api/quizzes/live-next", tok, nil, nil)
	if resp.StatusCode != http.StatusConflict || !strings.Contains(errorMessage(t, data), "Jun 2, 2025 10:00 AM") {
		t.Fatalf("unexpected response %d %s", resp.StatusCode, data)
	}
	resp, data = env.do(t, http.MethodGet, "/api/quizzes/live-now", tok, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected active live quiz to open, got %d %s", resp.StatusCode, data)
	}
}

func TestAdminLiveAccessAndQuizzes(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, "admin", "")
	_ = env.store.CreatePayment(context.Background(), domain.PaymentRequest{ID: "p1", UserID: "student", UserEmail: "SITA@example.com", Series: domain.SeriesLive, Status: domain.PaymentPending})

	resp, data := env.do(t, http.MethodPost, "/api/admin/live-access/grant", admin, nil, nil)
	var msg messageResp
	_ = json.Unmarshal(data, &msg)
	if resp.StatusCode != http.StatusOK || msg.Message != "Live test access granted to 1 user." {
		t.Fatalf("unexpected grant response %d %s", resp.StatusCode, data)
	}

	in := `{"title":"Live 3","grade":"CEE","timeLimit":20,"startTime":"2025-06-03T10:00","endTime":"2025-06-03T10:30",
		"importJson":[{"questionNo":1,"question":"Q","option1":"a","option2":"b","option3":"c","option4":"d","correctOption":"1","marks":1}]}`
	resp, data = env.do(t, http.MethodPost, "/api/admin/live-quizzes", admin, strings.NewReader(in), map[string]string{"Content-Type": "application/json"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create live quiz: %d %s", resp.StatusCode, data)
	}
	var created domain.Quiz
	_ = json.Unmarshal(data, &created)

	resp, _ = env.do(t, http.MethodPost, "/api/admin/live-quizzes/"+created.ID+"/archive", admin, nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("archive: %d", resp.StatusCode)
	}
	resp, _ = env.do(t, http.MethodDelete, "/api/admin/live-quizzes/"+created.ID, admin, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}

	resp, data = env.do(t, http.MethodPost, "/api/admin/live-quizzes", admin, strings.NewReader(`{"title":"x","importJson":[{"questionNo":1}]}`), nil)
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(errorMessage(t, data), "Found 1 invalid questions") {
		t.Fatalf("expected import rejection, got %d %s", resp.StatusCode, data)
	}

	reversed := `{"title":"Live 4","grade":"CEE","timeLimit":20,"startTime":"2025-06-03T10:30","endTime":"2025-06-03T10:00",
		"questions":[{"id":"q-1","question":"Q","option1":"a","option2":"b","option3":"c","option4":"d","correctOption":"option1","marks":1}]}`
	resp, data = env.do(t, http.MethodPost, "/api/admin/live-quizzes", admin, strings.NewReader(reversed), nil)
	if resp.StatusCode != http.StatusBadRequest || errorMessage(t, data) != "endTime must be after startTime" {
		t.Fatalf("expected window rejection, got %d %s", resp.StatusCode, data)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	env := newTestEnv(t)
	student := env.token(t, "student", "")
	resp, data := env.do(t, http.MethodPatch, "/api/me", student, strings.NewReader(`{"displayName":" ","examType":"IOE"}`), nil)
	if resp.StatusCode != http.StatusBadRequest || errorMessage(t, data) != "displayName is required" {
		t.Fatalf("expected displayName rejection, got %d %s", resp.StatusCode, data)
	}
}

func TestLocalUploadEndpoint(t *testing.T) {
	env := newTestEnv(t)
	body, ct := proofBody(t, "")
	resp, _ := env.do(t, http.MethodPost, "/uploads", "", body, map[string]string{"Content-Type": ct})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected anonymous upload rejected, got %d", resp.StatusCode)
	}

	body, ct = proofBody(t, "")
	resp, data := env.do(t, http.MethodPost, "/uploads", env.token(t, "student", ""), body, map[string]string{"Content-Type": ct})
	var out upload.Response
	_ = json.Unmarshal(data, &out)
	if resp.StatusCode != http.StatusOK || !out.Success || out.Filename == "" {
		t.Fatalf("unexpected upload response %d %s", resp.StatusCode, data)
	}
	resp, data = env.do(t, http.MethodGet, "/uploads/"+out.Filename, "", nil, nil)
	if resp.StatusCode != http.StatusOK || string(data) != "png-bytes" {
		t.Fatalf("unexpected download %d %q", resp.StatusCode, data)
	}
	resp, _ = env.do(t, http.MethodGet, "/uploads/missing.png", "", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
