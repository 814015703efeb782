package memory

import (
	"context"
	"sort"
	"sync"

	"testseries-service/internal/domain"
)

// Store is an in-process document store holding quizzes, users, payment requests and results.
// Every batch operation runs under one lock, so it is atomic with respect to other calls.
type Store struct {
	mu       sync.RWMutex
	quizzes  map[string]domain.Quiz
	users    map[string]domain.User
	payments map[string]domain.PaymentRequest
	results  map[string][]domain.QuizResult
}

func NewStore() *Store {
	return &Store{
		quizzes:  make(map[string]domain.Quiz),
		users:    make(map[string]domain.User),
		payments: make(map[string]domain.PaymentRequest),
		results:  make(map[string][]domain.QuizResult),
	}
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	q.Questions = append([]domain.Question(nil), q.Questions...)
	return q
}

func (s *Store) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(q), nil
}

func (s *Store) ListQuizzes(_ context.Context, query domain.QuizQuery) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if query.Matches(q) {
			out = append(out, cloneQuiz(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SaveQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = cloneQuiz(quiz)
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, quizID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

func (s *Store) SetArchived(_ context.Context, quizID string, archived bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quizzes[quizID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	q.Archive = archived
	s.quizzes[quizID] = q
	return nil
}

func (s *Store) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

// UpdateProfile sets the display name and, when non-empty, the exam type.
func (s *Store) UpdateProfile(_ context.Context, userID string, update domain.ProfileUpdate) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	u.DisplayName = update.DisplayName
	if update.ExamType != "" {
		u.ExamType = update.ExamType
	}
	s.users[userID] = u
	return u, nil
}

func (s *Store) SetLiveTestAccess(_ context.Context, userIDs []string, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range userIDs {
		if _, ok := s.users[id]; !ok {
			return domain.ErrUserNotFound
		}
	}
	for _, id := range userIDs {
		u := s.users[id]
		u.LiveTestAccess = granted
		s.users[id] = u
	}
	return nil
}

func (s *Store) CreatePayment(_ context.Context, req domain.PaymentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[req.ID] = req
	return nil
}

func (s *Store) GetPayment(_ context.Context, id string) (domain.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payments[id]
	if !ok {
		return domain.PaymentRequest{}, domain.ErrPaymentNotFound
	}
	return p, nil
}

// ListPayments returns requests newest first.
func (s *Store) ListPayments(_ context.Context) ([]domain.PaymentRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.PaymentRequest, 0, len(s.payments))
	for _, p := range s.payments {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) SetPaymentStatus(_ context.Context, id string, status domain.PaymentStatus) (domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return domain.PaymentRequest{}, domain.ErrPaymentNotFound
	}
	p.Status = status
	s.payments[id] = p
	return p, nil
}

// ApprovePayment creates the user record when it is missing so the grant is never lost.
func (s *Store) ApprovePayment(_ context.Context, id string) (domain.PaymentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[id]
	if !ok {
		return domain.PaymentRequest{}, domain.ErrPaymentNotFound
	}
	u, ok := s.users[p.UserID]
	if !ok {
		u = domain.User{ID: p.UserID, Email: p.UserEmail, DisplayName: p.UserName, PhotoURL: p.UserPhotoURL}
	}
	s.users[p.UserID] = u.WithAccess(p.Series, true)
	p.Status = domain.PaymentApproved
	s.payments[id] = p
	return p, nil
}

func (s *Store) SaveResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.QuizID] = append(s.results[result.QuizID], result)
	return nil
}

func (s *Store) ListResults(_ context.Context, quizID string) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResult(nil), s.results[quizID]...), nil
}
