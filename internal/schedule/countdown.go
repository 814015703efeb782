package schedule

import (
	"fmt"
	"time"
)

// FormatCountdown renders d as zero-padded HH:MM:SS, truncated to the second.
// Hours are not capped; negative durations render as 00:00:00.
func FormatCountdown(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Remaining renders a coarse "Nd Nh Nm" label used on list cards.
func Remaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	mins := int64(d / time.Minute)
	days := mins / (24 * 60)
	hours := (mins % (24 * 60)) / 60
	m := mins % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, m)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, m)
	default:
		return fmt.Sprintf("%dm", m)
	}
}

// Display formats a window bound for messages, e.g. "Jun 1, 2025 10:00 AM".
func Display(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006 3:04 PM")
}
