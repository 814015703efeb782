package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// QuizTypeLive marks quizzes gated by a start/end window.
const QuizTypeLive = "live"

// Details holds the quiz metadata nested under "details" in stored documents.
type Details struct {
	ID             string `json:"id,omitempty" firestore:"id,omitempty"`
	Title          string `json:"title" firestore:"title"`
	Grade          string `json:"grade" firestore:"grade"`
	TimeLimit      int    `json:"timeLimit" firestore:"timeLimit"` // minutes
	TargetAudience string `json:"targetAudience" firestore:"targetAudience"`
	StartTime      string `json:"startTime,omitempty" firestore:"startTime,omitempty"`
	EndTime        string `json:"endTime,omitempty" firestore:"endTime,omitempty"`
	ExamType       string `json:"examType,omitempty" firestore:"examType,omitempty"`
}

// Question models a four-option MCQ as stored by the admin import.
type Question struct {
	ID            string `json:"id" firestore:"id"`
	Number        string `json:"questionNo,omitempty" firestore:"questionNo,omitempty"`
	Text          string `json:"question" firestore:"question"`
	Option1       string `json:"option1" firestore:"option1"`
	Option2       string `json:"option2" firestore:"option2"`
	Option3       string `json:"option3" firestore:"option3"`
	Option4       string `json:"option4" firestore:"option4"`
	CorrectOption string `json:"correctOption" firestore:"correctOption"`
	Marks         int    `json:"marks" firestore:"marks"` // defaults to 1 if zero
	ImageLink     string `json:"imageLink,omitempty" firestore:"imageLink,omitempty"`
}

// Options returns the four option texts in order.
func (q Question) Options() [4]string {
	return [4]string{q.Option1, q.Option2, q.Option3, q.Option4}
}

// Image returns the usable image reference, treating "" and the "null" sentinel as absent.
func (q Question) Image() string {
	link := strings.TrimSpace(q.ImageLink)
	if link == "" || strings.EqualFold(link, "null") {
		return ""
	}
	return q.ImageLink
}

// Prompt is the text shown for the question at position index (0-based).
// An image replaces the text entirely.
func (q Question) Prompt(index int) string {
	if q.Image() != "" {
		return ""
	}
	if q.Text == "" {
		return fmt.Sprintf("Question %d text missing", index+1)
	}
	return q.Text
}

// Points returns the marks awarded for a correct answer.
func (q Question) Points() int {
	if q.Marks <= 0 {
		return 1
	}
	return q.Marks
}

// CorrectIndex resolves the correct option to 1..4, or 0 when it cannot be resolved.
// Live quizzes store "optionN", imports may carry a bare "N" and older series store the option text.
func (q Question) CorrectIndex() int {
	c := strings.TrimSpace(q.CorrectOption)
	if c == "" {
		return 0
	}
	if n, ok := strings.CutPrefix(strings.ToLower(c), "option"); ok {
		c = n
	}
	if n, err := strconv.Atoi(c); err == nil && n >= 1 && n <= 4 {
		return n
	}
	for i, opt := range q.Options() {
		if opt != "" && opt == q.CorrectOption {
			return i + 1
		}
	}
	return 0
}

// ParseMarks converts a loosely typed marks value, defaulting to 1.
func ParseMarks(v any) int {
	switch m := v.(type) {
	case int:
		if m > 0 {
			return m
		}
	case int64:
		if m > 0 {
			return int(m)
		}
	case float64:
		if m >= 1 {
			return int(m)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(m)); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// Quiz is a stored quiz document.
type Quiz struct {
	ID        string     `json:"id"`
	Details   Details    `json:"details"`
	Questions []Question `json:"questions"`
	Subject   string     `json:"subject,omitempty"`
	Type      string     `json:"type,omitempty"`
	Archive   bool       `json:"archive"`
	CreatedBy string     `json:"createdBy,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsLive reports whether the quiz belongs to the LIVE series.
func (q Quiz) IsLive() bool {
	return q.Type == QuizTypeLive
}

// Title returns the display title with the stored fallbacks.
func (q Quiz) Title() string {
	if q.Details.Title != "" {
		return q.Details.Title
	}
	if q.IsLive() {
		return "Untitled Live Quiz"
	}
	return "Untitled Quiz"
}

// Grade returns the series/grade tag; live quizzes without one fall back to LIVE.
func (q Quiz) Grade() string {
	if q.Details.Grade != "" {
		return q.Details.Grade
	}
	if q.IsLive() {
		return string(SeriesLive)
	}
	return "N/A"
}

// ExamTag is the exam-type label used to partition live quizzes.
func (q Quiz) ExamTag() string {
	switch {
	case q.Subject != "":
		return q.Subject
	case q.Details.ExamType != "":
		return q.Details.ExamType
	default:
		return q.Grade()
	}
}

// QuizQuery narrows a quiz listing. Zero values mean "any".
type QuizQuery struct {
	Grades          []string
	LiveOnly        bool
	ExcludeLive     bool
	IncludeArchived bool
}

// Matches applies the query to a single quiz.
func (qq QuizQuery) Matches(q Quiz) bool {
	if qq.LiveOnly && !q.IsLive() {
		return false
	}
	if qq.ExcludeLive && q.IsLive() {
		return false
	}
	if !qq.IncludeArchived && q.Archive {
		return false
	}
	if len(qq.Grades) > 0 {
		for _, g := range qq.Grades {
			if q.Details.Grade == g {
				return true
			}
		}
		return false
	}
	return true
}

// User is the per-user record with access flags.
type User struct {
	ID              string    `json:"id" firestore:"-"`
	Email           string    `json:"email" firestore:"email"`
	DisplayName     string    `json:"displayName" firestore:"displayName"`
	PhotoURL        string    `json:"photoURL,omitempty" firestore:"photoURL,omitempty"`
	Role            string    `json:"role,omitempty" firestore:"role,omitempty"`
	IOEAccess       bool      `json:"ioeAccess" firestore:"ioeAccess"`
	CEEAccess       bool      `json:"ceeAccess" firestore:"ceeAccess"`
	LiveTestAccess  bool      `json:"liveTestAccess" firestore:"liveTestAccess"`
	ExamType        string    `json:"examType,omitempty" firestore:"examType,omitempty"`
	CurrentStandard string    `json:"currentStandard,omitempty" firestore:"currentStandard,omitempty"`
	LastLogin       time.Time `json:"lastLogin,omitempty" firestore:"lastLogin,omitempty"`
	CreatedAt       time.Time `json:"createdAt,omitempty" firestore:"createdAt,omitempty"`
}

// RoleAdmin identifies administrators.
const RoleAdmin = "admin"

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(u.Role, RoleAdmin)
}

// HasAccess reports whether the series is unlocked for the user.
func (u User) HasAccess(s Series) bool {
	switch s {
	case SeriesIOE:
		return u.IOEAccess
	case SeriesCEE:
		return u.CEEAccess
	case SeriesLive:
		return u.LiveTestAccess
	}
	return false
}

// HasAnyAccess reports whether any series is unlocked.
func (u User) HasAnyAccess() bool {
	return u.IOEAccess || u.CEEAccess || u.LiveTestAccess
}

// WithAccess returns a copy with the series flag set.
func (u User) WithAccess(s Series, granted bool) User {
	switch s {
	case SeriesIOE:
		u.IOEAccess = granted
	case SeriesCEE:
		u.CEEAccess = granted
	case SeriesLive:
		u.LiveTestAccess = granted
	}
	return u
}

// PreferredExamType returns the exam-type preference, empty when unset or "none".
func (u User) PreferredExamType() string {
	et := strings.TrimSpace(u.ExamType)
	if strings.EqualFold(et, "none") {
		return ""
	}
	return et
}

// ProfileUpdate carries the fields a student may change on their own record.
type ProfileUpdate struct {
	DisplayName string `json:"displayName" validate:"notblank"`
	ExamType    string `json:"examType" validate:"omitempty,oneof=IOE CEE none"`
}

// PaymentStatus is the lifecycle state of a payment request.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentRequest is a submitted proof of an out-of-band payment.
type PaymentRequest struct {
	ID               string        `json:"id" firestore:"-"`
	UserID           string        `json:"userId" firestore:"userId"`
	UserName         string        `json:"userName" firestore:"userName"`
	UserEmail        string        `json:"userEmail" firestore:"userEmail"`
	UserPhotoURL     string        `json:"userPhotoURL,omitempty" firestore:"userPhotoURL,omitempty"`
	Series           Series        `json:"seriesPurchased" firestore:"seriesPurchased"`
	ProofFileName    string        `json:"paymentProofFileName" firestore:"paymentProofFileName"`
	ProofURL         string        `json:"paymentProofCpanelUrl" firestore:"paymentProofCpanelUrl"`
	Status           PaymentStatus `json:"status" firestore:"status"`
	RequestedAt      time.Time     `json:"requestedAt" firestore:"requestedAt"`
	Amount           int64         `json:"paymentAmount,omitempty" firestore:"paymentAmount,omitempty"`
	Method           string        `json:"paymentMethod,omitempty" firestore:"paymentMethod,omitempty"`
	SubmissionSource string        `json:"submissionSource,omitempty" firestore:"submissionSource,omitempty"`
}

// PaymentView decorates a payment request with the purchaser's access state for admin review.
type PaymentView struct {
	PaymentRequest
	HasAccessed    bool       `json:"hasAccessed"`
	LastAccessDate *time.Time `json:"lastAccessDate,omitempty"`
}

// QuizResult records one completed attempt.
type QuizResult struct {
	ID          string            `json:"id" firestore:"-"`
	QuizID      string            `json:"quizId" firestore:"quizId"`
	QuizTitle   string            `json:"quizTitle" firestore:"quizTitle"`
	UserID      string            `json:"userId" firestore:"userId"`
	UserName    string            `json:"userName" firestore:"userName"`
	Score       int               `json:"score" firestore:"score"`
	Total       int               `json:"total" firestore:"total"`
	Correct     int               `json:"correct" firestore:"correct"`
	Answers     map[string]string `json:"answers" firestore:"answers"`
	SubmittedAt time.Time         `json:"submittedAt" firestore:"submittedAt"`
}

// LeaderboardEntry is a ranked row derived from results.
type LeaderboardEntry struct {
	UserID string `json:"userId"`
	Rank   int    `json:"rank"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Leaderboard captures the ordered scoreboard for a quiz.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	QuizTitle string             `json:"quizTitle,omitempty"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Identity is the verified caller as reported by the auth provider.
type Identity struct {
	UID      string
	Email    string
	Name     string
	PhotoURL string
	Role     string
}
