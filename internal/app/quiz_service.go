package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"testseries-service/internal/catalog"
	"testseries-service/internal/domain"
	"testseries-service/internal/leaderboard"
	"testseries-service/internal/schedule"
)

// QuizService contains the student-facing quiz use cases.
type QuizService struct {
	quizzes QuizRepository
	store   QuizStore
	results ResultStore
	opts    options
}

func NewQuizService(quizzes QuizRepository, store QuizStore, results ResultStore, opts ...Option) *QuizService {
	return &QuizService{
		quizzes: quizzes,
		store:   store,
		results: results,
		opts:    buildOptions(opts),
	}
}

// LiveState is the time-window view of a live quiz at a given instant.
type LiveState struct {
	Status    schedule.Status `json:"status"`
	StartTime string          `json:"startTime,omitempty"`
	EndTime   string          `json:"endTime,omitempty"`
	Countdown string          `json:"countdown,omitempty"`
	Remaining string          `json:"remaining,omitempty"`
}

// QuizSummary is a listing card: metadata only, never questions.
type QuizSummary struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	NormalizedTitle string       `json:"normalizedTitle"`
	Kind            catalog.Kind `json:"kind"`
	Number          int          `json:"number"`
	Grade           string       `json:"grade"`
	TimeLimit       int          `json:"timeLimit"`
	TargetAudience  string       `json:"targetAudience,omitempty"`
	QuestionCount   int          `json:"questionCount"`
	TotalMarks      int          `json:"totalMarks"`
	Archived        bool         `json:"archived,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	Live            *LiveState   `json:"live,omitempty"`
}

// SeriesListing is the sorted, filtered content of one series for a viewer.
type SeriesListing struct {
	Series   domain.Series  `json:"series"`
	Unlocked bool           `json:"unlocked"`
	Price    int64          `json:"price"`
	Filter   catalog.Filter `json:"filter"`
	Counts   catalog.Counts `json:"counts"`
	Quizzes  []QuizSummary  `json:"quizzes"`
}

// SeriesOverview is one row of the series picker.
type SeriesOverview struct {
	Series    domain.Series `json:"series"`
	Unlocked  bool          `json:"unlocked"`
	Price     int64         `json:"price"`
	QuizCount int           `json:"quizCount"`
}

// PaperQuestion is a question as sent to a student: no correct option.
type PaperQuestion struct {
	ID      string    `json:"id"`
	Number  string    `json:"questionNo,omitempty"`
	Prompt  string    `json:"question"`
	Image   string    `json:"imageLink,omitempty"`
	Options [4]string `json:"options"`
	Marks   int       `json:"marks"`
}

// QuizPaper is an opened quiz ready to attempt.
type QuizPaper struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Grade     string          `json:"grade"`
	TimeLimit int             `json:"timeLimit"`
	Questions []PaperQuestion `json:"questions"`
	EndsAt    *time.Time      `json:"endsAt,omitempty"`
}

// Overview reports, per series, whether the viewer has it unlocked and how many quizzes it holds.
func (s *QuizService) Overview(ctx context.Context, user domain.User) ([]SeriesOverview, error) {
	all, err := s.store.ListQuizzes(ctx, domain.QuizQuery{})
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	out := make([]SeriesOverview, 0, len(domain.AllSeries))
	for _, series := range domain.AllSeries {
		out = append(out, SeriesOverview{
			Series:    series,
			Unlocked:  catalog.Unlocked(user, series),
			Price:     s.opts.prices[series],
			QuizCount: len(catalog.Partition(all, series, user.PreferredExamType())),
		})
	}
	return out, nil
}

// ListSeries returns the viewer's sorted listing of a series, narrowed by kind.
// Counts always cover the whole series so a filter bar can show them.
func (s *QuizService) ListSeries(ctx context.Context, user domain.User, series domain.Series, filter catalog.Filter) (SeriesListing, error) {
	quizzes, err := s.seriesQuizzes(ctx, user, series)
	if err != nil {
		return SeriesListing{}, err
	}
	now := s.opts.now()
	visible := catalog.FilterKind(quizzes, filter)
	summaries := make([]QuizSummary, 0, len(visible))
	for _, q := range visible {
		summaries = append(summaries, s.summarize(q, now))
	}
	return SeriesListing{
		Series:   series,
		Unlocked: catalog.Unlocked(user, series),
		Price:    s.opts.prices[series],
		Filter:   filter,
		Counts:   catalog.CountKinds(quizzes),
		Quizzes:  summaries,
	}, nil
}

func (s *QuizService) seriesQuizzes(ctx context.Context, user domain.User, series domain.Series) ([]domain.Quiz, error) {
	query := domain.QuizQuery{Grades: []string{string(series)}, ExcludeLive: true}
	if series == domain.SeriesLive {
		query = domain.QuizQuery{LiveOnly: true}
	}
	all, err := s.store.ListQuizzes(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s quizzes: %w", series, err)
	}
	return catalog.SortQuizzes(catalog.Partition(all, series, user.PreferredExamType())), nil
}

func (s *QuizService) summarize(q domain.Quiz, now time.Time) QuizSummary {
	title := catalog.ParseTitle(q.Title())
	total := 0
	for _, question := range q.Questions {
		total += question.Points()
	}
	sum := QuizSummary{
		ID:              q.ID,
		Title:           q.Title(),
		NormalizedTitle: title.Display,
		Kind:            title.Kind,
		Number:          title.Number,
		Grade:           q.Grade(),
		TimeLimit:       q.Details.TimeLimit,
		TargetAudience:  q.Details.TargetAudience,
		QuestionCount:   len(q.Questions),
		TotalMarks:      total,
		Archived:        q.Archive,
		CreatedAt:       q.CreatedAt,
	}
	if q.IsLive() {
		sum.Live = s.liveState(q, now)
	}
	return sum
}

func (s *QuizService) liveState(q domain.Quiz, now time.Time) *LiveState {
	w := s.window(q)
	st := &LiveState{
		Status:    w.Status(now),
		StartTime: q.Details.StartTime,
		EndTime:   q.Details.EndTime,
		Countdown: w.Countdown(now),
	}
	if target, ok := w.Target(now); ok {
		st.Remaining = schedule.Remaining(target.Sub(now))
	}
	return st
}

func (s *QuizService) window(q domain.Quiz) schedule.Window {
	return schedule.ParseWindow(q.Details.StartTime, q.Details.EndTime, s.opts.loc)
}

// seriesOf maps a quiz to its purchasable series; numeric grades belong to none.
func seriesOf(q domain.Quiz) (domain.Series, bool) {
	if q.IsLive() {
		return domain.SeriesLive, true
	}
	series, err := domain.ParseSeries(q.Details.Grade)
	if err != nil {
		return "", false
	}
	return series, true
}

func (s *QuizService) authorize(user domain.User, q domain.Quiz) error {
	if user.IsAdmin() {
		return nil
	}
	if series, ok := seriesOf(q); ok && !user.HasAccess(series) {
		return domain.ErrSeriesLocked
	}
	return nil
}

// StartQuiz opens a quiz for the viewer. Live quizzes only open inside their window.
func (s *QuizService) StartQuiz(ctx context.Context, user domain.User, quizID string) (QuizPaper, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return QuizPaper{}, err
	}
	if err := s.authorize(user, q); err != nil {
		return QuizPaper{}, err
	}

	paper := QuizPaper{
		ID:        q.ID,
		Title:     q.Title(),
		Grade:     q.Grade(),
		TimeLimit: q.Details.TimeLimit,
		Questions: make([]PaperQuestion, 0, len(q.Questions)),
	}
	if q.IsLive() && !user.IsAdmin() {
		w := s.window(q)
		switch w.Status(s.opts.now()) {
		case schedule.StatusInvalid:
			return QuizPaper{}, &TimingError{Err: domain.ErrQuizTimingInvalid, Start: w.Start, End: w.End}
		case schedule.StatusUpcoming:
			return QuizPaper{}, &TimingError{Err: domain.ErrQuizUpcoming, Start: w.Start, End: w.End}
		case schedule.StatusEnded:
			return QuizPaper{}, &TimingError{Err: domain.ErrQuizEnded, Start: w.Start, End: w.End}
		}
		end := w.End
		paper.EndsAt = &end
	}
	for i, question := range q.Questions {
		paper.Questions = append(paper.Questions, PaperQuestion{
			ID:      question.ID,
			Number:  question.Number,
			Prompt:  question.Prompt(i),
			Image:   question.Image(),
			Options: question.Options(),
			Marks:   question.Points(),
		})
	}
	slog.Debug("quiz started", "quiz", q.ID, "user", user.ID)
	return paper, nil
}

// SubmitResult scores an attempt and stores it for the leaderboard.
// Answers map question id to the chosen option ("optionN", "N" or the option text).
func (s *QuizService) SubmitResult(ctx context.Context, user domain.User, quizID string, answers map[string]string) (domain.QuizResult, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if err := s.authorize(user, q); err != nil {
		return domain.QuizResult{}, err
	}
	now := s.opts.now()
	if q.IsLive() && !user.IsAdmin() {
		if err := s.submissionOpen(q, now); err != nil {
			return domain.QuizResult{}, err
		}
	}

	score, correct, total := scoreSubmission(q, answers)
	result := domain.QuizResult{
		ID:          uuid.NewString(),
		QuizID:      q.ID,
		QuizTitle:   q.Title(),
		UserID:      user.ID,
		UserName:    displayName(user),
		Score:       score,
		Total:       total,
		Correct:     correct,
		Answers:     answers,
		SubmittedAt: now,
	}
	if err := s.results.SaveResult(ctx, result); err != nil {
		return domain.QuizResult{}, fmt.Errorf("save result: %w", err)
	}
	slog.Info("result submitted", "quiz", q.ID, "user", user.ID, "score", score, "total", total)
	return result, nil
}

// submissionOpen accepts answers while the window is active and for one time limit after it ends,
// so an attempt started just before the close can still be handed in.
func (s *QuizService) submissionOpen(q domain.Quiz, now time.Time) error {
	w := s.window(q)
	switch w.Status(now) {
	case schedule.StatusInvalid:
		return &TimingError{Err: domain.ErrQuizTimingInvalid, Start: w.Start, End: w.End}
	case schedule.StatusUpcoming:
		return &TimingError{Err: domain.ErrQuizUpcoming, Start: w.Start, End: w.End}
	case schedule.StatusEnded:
		grace := time.Duration(q.Details.TimeLimit) * time.Minute
		if now.After(w.End.Add(grace)) {
			return &TimingError{Err: domain.ErrQuizEnded, Start: w.Start, End: w.End}
		}
	}
	return nil
}

// scoreSubmission returns (score, correct answers, total marks available).
func scoreSubmission(q domain.Quiz, answers map[string]string) (int, int, int) {
	score, correct, total := 0, 0, 0
	for _, question := range q.Questions {
		points := question.Points()
		total += points
		chosen, ok := answers[question.ID]
		if !ok || strings.TrimSpace(chosen) == "" {
			continue
		}
		probe := question
		probe.CorrectOption = chosen
		want := question.CorrectIndex()
		if want != 0 && probe.CorrectIndex() == want {
			score += points
			correct++
		}
	}
	return score, correct, total
}

func displayName(u domain.User) string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return ""
}

// Leaderboard ranks the stored results of a quiz.
func (s *QuizService) Leaderboard(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	q, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	results, err := s.results.ListResults(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list results: %w", err)
	}
	return leaderboard.FromResults(q.ID, q.Title(), results, s.opts.now()), nil
}

// CurrentLive returns the first unarchived live quiz in listing order.
func (s *QuizService) CurrentLive(ctx context.Context) (QuizSummary, error) {
	live, err := s.store.ListQuizzes(ctx, domain.QuizQuery{LiveOnly: true})
	if err != nil {
		return QuizSummary{}, fmt.Errorf("list live quizzes: %w", err)
	}
	for _, q := range catalog.SortQuizzes(live) {
		if !q.Archive {
			return s.summarize(q, s.opts.now()), nil
		}
	}
	return QuizSummary{}, domain.ErrNoLiveQuiz
}
