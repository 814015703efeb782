package app

import "time"

// TimingError explains why a live quiz cannot be opened right now.
// It unwraps to ErrQuizUpcoming, ErrQuizEnded or ErrQuizTimingInvalid.
type TimingError struct {
	Err   error
	Start time.Time
	End   time.Time
}

func (e *TimingError) Error() string {
	return e.Err.Error()
}

func (e *TimingError) Unwrap() error {
	return e.Err
}
