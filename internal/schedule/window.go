package schedule

import (
	"strings"
	"time"
)

// Status is the derived state of a live quiz window.
type Status string

const (
	StatusInvalid  Status = "invalid"
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

// zonedLayouts carry their own offset; localLayouts are read in the window's location.
var (
	zonedLayouts = []string{
		time.RFC3339,
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
)

// Window is the declared start/end of a live quiz. Zero bounds mean "missing".
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseTime reads a stored timestamp. Empty or unparsable input yields the zero time.
func ParseTime(raw string, loc *time.Location) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ParseWindow builds a Window from stored start/end strings.
func ParseWindow(start, end string, loc *time.Location) Window {
	return Window{Start: ParseTime(start, loc), End: ParseTime(end, loc)}
}

// Status classifies now against the window. Both bounds are inclusive for "active".
func (w Window) Status(now time.Time) Status {
	if w.Start.IsZero() || w.End.IsZero() {
		return StatusInvalid
	}
	switch {
	case now.Before(w.Start):
		return StatusUpcoming
	case now.After(w.End):
		return StatusEnded
	default:
		return StatusActive
	}
}

// Target is the instant the countdown runs toward: start while upcoming, end while active.
func (w Window) Target(now time.Time) (time.Time, bool) {
	switch w.Status(now) {
	case StatusUpcoming:
		return w.Start, true
	case StatusActive:
		return w.End, true
	}
	return time.Time{}, false
}

// Countdown returns the HH:MM:SS string for the current target, or "" when there is none.
func (w Window) Countdown(now time.Time) string {
	target, ok := w.Target(now)
	if !ok {
		return ""
	}
	return FormatCountdown(target.Sub(now))
}

// Valid reports whether both bounds are present and the end follows the start.
func (w Window) Valid() bool {
	return !w.Start.IsZero() && !w.End.IsZero() && w.End.After(w.Start)
}
