package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"testseries-service/internal/catalog"
	"testseries-service/internal/domain"
	"testseries-service/internal/quizimport"
	"testseries-service/internal/schedule"
	"testseries-service/internal/validate"
)

// AdminService holds the dashboard operations: live quiz management and bulk access.
type AdminService struct {
	quizzes  QuizStore
	cache    QuizRepository
	users    UserStore
	payments PaymentStore
	opts     options
}

func NewAdminService(quizzes QuizStore, cache QuizRepository, users UserStore, payments PaymentStore, opts ...Option) *AdminService {
	return &AdminService{
		quizzes:  quizzes,
		cache:    cache,
		users:    users,
		payments: payments,
		opts:     buildOptions(opts),
	}
}

// LiveQuizInput is the admin form for a live quiz.
// Questions may be given already structured, or as the raw import JSON array.
type LiveQuizInput struct {
	Title          string            `json:"title" validate:"notblank"`
	Grade          string            `json:"grade" validate:"notblank"`
	TimeLimit      int               `json:"timeLimit" validate:"gt=0"`
	TargetAudience string            `json:"targetAudience"`
	StartTime      string            `json:"startTime" validate:"notblank"`
	EndTime        string            `json:"endTime" validate:"notblank"`
	ExamType       string            `json:"examType"`
	Subject        string            `json:"subject"`
	Questions      []domain.Question `json:"questions" validate:"min=1,dive"`
	ImportJSON     json.RawMessage   `json:"importJson,omitempty"`
}

// liveWindow is the parsed schedule; unparsable strings stay zero and fail required.
type liveWindow struct {
	StartTime time.Time `json:"startTime" validate:"required"`
	EndTime   time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
}

func (in LiveQuizInput) validate(loc *time.Location) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	w := schedule.ParseWindow(in.StartTime, in.EndTime, loc)
	return validate.Struct(liveWindow{StartTime: w.Start, EndTime: w.End})
}

// SaveLiveQuiz creates a live quiz (id empty) or replaces an existing one.
// Updates keep the archive flag, author and creation time.
func (s *AdminService) SaveLiveQuiz(ctx context.Context, admin domain.User, id string, in LiveQuizInput) (domain.Quiz, error) {
	if len(in.ImportJSON) > 0 {
		questions, err := quizimport.Parse(in.ImportJSON)
		if err != nil {
			return domain.Quiz{}, err
		}
		in.Questions = questions
	}
	if err := in.validate(s.opts.loc); err != nil {
		return domain.Quiz{}, err
	}

	now := s.opts.now()
	quiz := domain.Quiz{
		Type:      domain.QuizTypeLive,
		Subject:   strings.TrimSpace(in.Subject),
		Questions: in.Questions,
		CreatedBy: admin.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if id == "" {
		quiz.ID = fmt.Sprintf("quiz_%d", now.UnixMilli())
	} else {
		existing, err := s.quizzes.LoadQuiz(ctx, id)
		if err != nil {
			return domain.Quiz{}, err
		}
		if !existing.IsLive() {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		quiz.ID = existing.ID
		quiz.Archive = existing.Archive
		quiz.CreatedAt = existing.CreatedAt
		if existing.CreatedBy != "" {
			quiz.CreatedBy = existing.CreatedBy
		}
	}
	quiz.Details = domain.Details{
		ID:             quiz.ID,
		Title:          strings.TrimSpace(in.Title),
		Grade:          strings.TrimSpace(in.Grade),
		TimeLimit:      in.TimeLimit,
		TargetAudience: in.TargetAudience,
		StartTime:      in.StartTime,
		EndTime:        in.EndTime,
		ExamType:       in.ExamType,
	}
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == "" {
			quiz.Questions[i].ID = fmt.Sprintf("q-%d", i+1)
		}
	}

	if err := s.quizzes.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("save live quiz: %w", err)
	}
	s.cache.Invalidate(ctx, quiz.ID)
	slog.Info("live quiz saved", "id", quiz.ID, "questions", len(quiz.Questions), "by", admin.ID)
	return quiz, nil
}

// DeleteLiveQuiz removes a live quiz.
func (s *AdminService) DeleteLiveQuiz(ctx context.Context, id string) error {
	if err := s.quizzes.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	slog.Info("live quiz deleted", "id", id)
	return nil
}

// ToggleArchive flips the archive flag and returns the updated quiz.
func (s *AdminService) ToggleArchive(ctx context.Context, id string) (domain.Quiz, error) {
	q, err := s.quizzes.LoadQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	q.Archive = !q.Archive
	if err := s.quizzes.SetArchived(ctx, id, q.Archive); err != nil {
		return domain.Quiz{}, fmt.Errorf("set archived: %w", err)
	}
	s.cache.Invalidate(ctx, id)
	slog.Info("live quiz archive toggled", "id", id, "archived", q.Archive)
	return q, nil
}

// ListLiveQuizzes returns every live quiz, archived ones included, in listing order.
func (s *AdminService) ListLiveQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	quizzes, err := s.quizzes.ListQuizzes(ctx, domain.QuizQuery{LiveOnly: true, IncludeArchived: true})
	if err != nil {
		return nil, fmt.Errorf("list live quizzes: %w", err)
	}
	return catalog.SortQuizzes(quizzes), nil
}

// GrantLiveAccess turns liveTestAccess on for every user with a LIVE payment request.
func (s *AdminService) GrantLiveAccess(ctx context.Context) (int, error) {
	return s.setLiveAccess(ctx, true)
}

// RevokeLiveAccess turns liveTestAccess off for every user with a LIVE payment request.
func (s *AdminService) RevokeLiveAccess(ctx context.Context) (int, error) {
	return s.setLiveAccess(ctx, false)
}

// setLiveAccess matches users to LIVE requests by email (any status) and updates,
// in one batch, only those whose flag differs from the target.
func (s *AdminService) setLiveAccess(ctx context.Context, granted bool) (int, error) {
	requests, err := s.payments.ListPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}
	emails := make(map[string]struct{})
	for _, r := range requests {
		if r.Series == domain.SeriesLive && r.UserEmail != "" {
			emails[strings.ToLower(r.UserEmail)] = struct{}{}
		}
	}
	if len(emails) == 0 {
		return 0, nil
	}

	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	ids := make([]string, 0)
	for _, u := range users {
		if _, ok := emails[strings.ToLower(u.Email)]; !ok {
			continue
		}
		if u.LiveTestAccess != granted {
			ids = append(ids, u.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.users.SetLiveTestAccess(ctx, ids, granted); err != nil {
		return 0, fmt.Errorf("set live test access: %w", err)
	}
	slog.Info("live test access updated", "granted", granted, "users", len(ids))
	return len(ids), nil
}
