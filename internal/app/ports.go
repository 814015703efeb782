package app

import (
	"context"
	"io"
	"time"

	"testseries-service/internal/domain"
)

// QuizLoader fetches a single quiz from the backing document store.
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizStore persists quiz documents.
type QuizStore interface {
	QuizLoader
	ListQuizzes(ctx context.Context, q domain.QuizQuery) ([]domain.Quiz, error)
	SaveQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
	SetArchived(ctx context.Context, quizID string, archived bool) error
}

// QuizRepository loads quiz content through a cache.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// UserStore persists per-user access records.
type UserStore interface {
	GetUser(ctx context.Context, userID string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	SaveUser(ctx context.Context, user domain.User) error
	UpdateProfile(ctx context.Context, userID string, update domain.ProfileUpdate) (domain.User, error)
	// SetLiveTestAccess updates every listed user in one atomic batch.
	SetLiveTestAccess(ctx context.Context, userIDs []string, granted bool) error
}

// PaymentStore persists payment requests.
type PaymentStore interface {
	CreatePayment(ctx context.Context, req domain.PaymentRequest) error
	GetPayment(ctx context.Context, id string) (domain.PaymentRequest, error)
	ListPayments(ctx context.Context) ([]domain.PaymentRequest, error)
	SetPaymentStatus(ctx context.Context, id string, status domain.PaymentStatus) (domain.PaymentRequest, error)
	// ApprovePayment marks the request approved and unlocks the purchased series
	// for the requesting user atomically.
	ApprovePayment(ctx context.Context, id string) (domain.PaymentRequest, error)
}

// ResultStore persists completed attempts.
type ResultStore interface {
	SaveResult(ctx context.Context, result domain.QuizResult) error
	ListResults(ctx context.Context, quizID string) ([]domain.QuizResult, error)
}

// Store is the full document store a backend provides.
type Store interface {
	QuizStore
	UserStore
	PaymentStore
	ResultStore
}

// UploadResult is the response contract of the proof upload endpoint.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// ProofUploader stores a payment proof image and returns where it landed.
type ProofUploader interface {
	Upload(ctx context.Context, filename, contentType string, body io.Reader) (UploadResult, error)
}

// SubmissionGuard rejects repeated keys inside a time window.
type SubmissionGuard interface {
	// Acquire returns false when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
