package app

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"testseries-service/internal/domain"
)

// SubmissionSourceWeb tags requests created through this service.
const SubmissionSourceWeb = "web"

// PaymentConfig holds the payment settings.
type PaymentConfig struct {
	Method   string
	GuardTTL time.Duration
}

// PaymentService handles proof submission and admin review.
type PaymentService struct {
	payments PaymentStore
	users    UserStore
	uploader ProofUploader
	guard    SubmissionGuard
	cfg      PaymentConfig
	opts     options
}

func NewPaymentService(payments PaymentStore, users UserStore, uploader ProofUploader, guard SubmissionGuard, cfg PaymentConfig, opts ...Option) *PaymentService {
	if cfg.Method == "" {
		cfg.Method = "eSewa"
	}
	if cfg.GuardTTL <= 0 {
		cfg.GuardTTL = 2 * time.Minute
	}
	return &PaymentService{
		payments: payments,
		users:    users,
		uploader: uploader,
		guard:    guard,
		cfg:      cfg,
		opts:     buildOptions(opts),
	}
}

// PaymentSubmission is a student's proof upload.
type PaymentSubmission struct {
	Series         string
	FileName       string
	ContentType    string
	Body           io.Reader
	IdempotencyKey string
}

// Submit uploads the proof and records a pending request.
// Nothing is written unless the upload succeeds.
func (s *PaymentService) Submit(ctx context.Context, user domain.User, in PaymentSubmission) (domain.PaymentRequest, error) {
	series, err := domain.ParseSeries(in.Series)
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	if in.Body == nil {
		return domain.PaymentRequest{}, domain.Invalid("Please attach an image of your payment")
	}
	if !strings.HasPrefix(strings.ToLower(in.ContentType), "image/") {
		return domain.PaymentRequest{}, domain.Invalid("Payment proof must be an image")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return domain.PaymentRequest{}, fmt.Errorf("read proof: %w", err)
	}
	if len(data) == 0 {
		return domain.PaymentRequest{}, domain.Invalid("Please attach an image of your payment")
	}

	key := s.guardKey(user.ID, series, in.IdempotencyKey, data)
	if s.guard != nil {
		ok, err := s.guard.Acquire(ctx, key, s.cfg.GuardTTL)
		if err != nil {
			return domain.PaymentRequest{}, fmt.Errorf("acquire submission guard: %w", err)
		}
		if !ok {
			return domain.PaymentRequest{}, domain.ErrDuplicateSubmission
		}
	}
	release := func() {
		if s.guard == nil {
			return
		}
		if err := s.guard.Release(context.WithoutCancel(ctx), key); err != nil {
			slog.Warn("release submission guard", "key", key, "error", err)
		}
	}

	uploaded, err := s.uploader.Upload(ctx, proofName(user.ID, series, in.FileName), in.ContentType, bytes.NewReader(data))
	if err != nil {
		release()
		return domain.PaymentRequest{}, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	req := domain.PaymentRequest{
		ID:               uuid.NewString(),
		UserID:           user.ID,
		UserName:         displayName(user),
		UserEmail:        user.Email,
		UserPhotoURL:     user.PhotoURL,
		Series:           series,
		ProofFileName:    uploaded.Filename,
		ProofURL:         uploaded.URL,
		Status:           domain.PaymentPending,
		RequestedAt:      s.opts.now(),
		Amount:           s.opts.prices[series],
		Method:           s.cfg.Method,
		SubmissionSource: SubmissionSourceWeb,
	}
	if err := s.payments.CreatePayment(ctx, req); err != nil {
		release()
		return domain.PaymentRequest{}, fmt.Errorf("create payment request: %w", err)
	}
	slog.Info("payment submitted", "id", req.ID, "user", user.ID, "series", series, "amount", req.Amount)
	return req, nil
}

func (s *PaymentService) guardKey(userID string, series domain.Series, idempotencyKey string, data []byte) string {
	if k := strings.TrimSpace(idempotencyKey); k != "" {
		return "payment:" + userID + ":" + k
	}
	sum := sha256.Sum256(data)
	return "payment:" + userID + ":" + string(series) + ":" + hex.EncodeToString(sum[:])
}

// proofName builds a unique, recognisable upload file name keeping the client's extension.
func proofName(userID string, series domain.Series, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" || len(ext) > 5 {
		ext = ".jpg"
	}
	return fmt.Sprintf("%s_%s_%s%s", strings.ToLower(string(series)), userID, uuid.NewString()[:8], ext)
}

// PaymentQuery filters and orders the admin payment list.
type PaymentQuery struct {
	Series string
	Search string
	SortBy string
	Desc   bool
}

// PaymentListing is the admin dashboard view.
type PaymentListing struct {
	Payments []domain.PaymentView `json:"payments"`
	Counts   map[string]int       `json:"counts"`
	Total    int                  `json:"total"`
}

// ListPayments decorates requests with the purchaser's access state, then filters, searches and sorts.
// Counts are per series before search and series filtering.
func (s *PaymentService) ListPayments(ctx context.Context, q PaymentQuery) (PaymentListing, error) {
	requests, err := s.payments.ListPayments(ctx)
	if err != nil {
		return PaymentListing{}, fmt.Errorf("list payments: %w", err)
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return PaymentListing{}, fmt.Errorf("list users: %w", err)
	}
	byEmail := make(map[string]domain.User, len(users))
	for _, u := range users {
		if u.Email != "" {
			byEmail[strings.ToLower(u.Email)] = u
		}
	}

	counts := map[string]int{"all": len(requests)}
	views := make([]domain.PaymentView, 0, len(requests))
	for _, r := range requests {
		counts[string(r.Series)]++
		v := domain.PaymentView{PaymentRequest: r}
		if u, ok := byEmail[strings.ToLower(r.UserEmail)]; ok {
			v.HasAccessed = u.HasAnyAccess()
			if !u.LastLogin.IsZero() {
				last := u.LastLogin
				v.LastAccessDate = &last
			}
		}
		views = append(views, v)
	}

	views = filterPayments(views, q)
	sortPayments(views, q.SortBy, q.Desc)
	return PaymentListing{Payments: views, Counts: counts, Total: len(views)}, nil
}

func filterPayments(views []domain.PaymentView, q PaymentQuery) []domain.PaymentView {
	series := strings.TrimSpace(q.Series)
	term := strings.ToLower(strings.TrimSpace(q.Search))
	if (series == "" || strings.EqualFold(series, "all")) && term == "" {
		return views
	}
	out := views[:0]
	for _, v := range views {
		if series != "" && !strings.EqualFold(series, "all") && !strings.EqualFold(string(v.Series), series) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(v.UserName), term) &&
			!strings.Contains(strings.ToLower(v.UserEmail), term) &&
			!strings.Contains(strings.ToLower(v.ID), term) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func sortPayments(views []domain.PaymentView, field string, desc bool) {
	less := func(a, b domain.PaymentView) bool {
		switch field {
		case "requestedAt":
			return a.RequestedAt.Before(b.RequestedAt)
		case "userName":
			return strings.ToLower(a.UserName) < strings.ToLower(b.UserName)
		case "userEmail":
			return strings.ToLower(a.UserEmail) < strings.ToLower(b.UserEmail)
		case "seriesPurchased":
			return a.Series < b.Series
		case "paymentAmount":
			return a.Amount < b.Amount
		case "accessStatus":
			return !a.HasAccessed && b.HasAccessed
		default:
			return a.ID < b.ID
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		if desc {
			return less(views[j], views[i])
		}
		return less(views[i], views[j])
	})
}

// Approve marks a request approved and unlocks the series for its user.
func (s *PaymentService) Approve(ctx context.Context, id string) (domain.PaymentRequest, error) {
	req, err := s.payments.ApprovePayment(ctx, id)
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	slog.Info("payment approved", "id", id, "user", req.UserID, "series", req.Series)
	return req, nil
}

// Reject marks a request rejected without touching access.
func (s *PaymentService) Reject(ctx context.Context, id string) (domain.PaymentRequest, error) {
	req, err := s.payments.SetPaymentStatus(ctx, id, domain.PaymentRejected)
	if err != nil {
		return domain.PaymentRequest{}, err
	}
	slog.Info("payment rejected", "id", id, "user", req.UserID)
	return req, nil
}

