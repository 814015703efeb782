package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUserNotFound is returned when no user record exists for an id.
	ErrUserNotFound = errors.New("user not found")
	// ErrPaymentNotFound is returned for an unknown payment request id.
	ErrPaymentNotFound = errors.New("payment request not found")
	// ErrInvalidSeries rejects series names other than IOE, CEE and LIVE.
	ErrInvalidSeries = errors.New("invalid series")
	// ErrSeriesLocked is returned when the viewer has not purchased the series.
	ErrSeriesLocked = errors.New("series not purchased")
	// ErrForbidden is returned for admin operations attempted by non-admins.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthenticated is returned when no valid identity accompanies a request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrQuizUpcoming is returned when a live quiz has not opened yet.
	ErrQuizUpcoming = errors.New("live quiz has not started")
	// ErrQuizEnded is returned when a live quiz window has closed.
	ErrQuizEnded = errors.New("live quiz has ended")
	// ErrQuizTimingInvalid is returned when a live quiz lacks a usable window.
	ErrQuizTimingInvalid = errors.New("live quiz has invalid timing")
	// ErrUploadFailed wraps any failure of the proof upload step.
	ErrUploadFailed = errors.New("payment proof upload failed")
	// ErrDuplicateSubmission rejects a repeated payment submission.
	ErrDuplicateSubmission = errors.New("duplicate payment submission")
	// ErrNoLiveQuiz is returned when no unarchived live quiz exists.
	ErrNoLiveQuiz = errors.New("no live quiz available")
)

// ValidationError reports a rejected input with a user-facing reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Invalid builds a ValidationError.
func Invalid(reason string) error {
	return &ValidationError{Reason: reason}
}
