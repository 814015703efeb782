package domain

import "strings"

// Series is a purchasable bundle of quizzes.
type Series string

const (
	SeriesIOE  Series = "IOE"
	SeriesCEE  Series = "CEE"
	SeriesLive Series = "LIVE"
)

// AllSeries lists the purchasable series in display order.
var AllSeries = []Series{SeriesIOE, SeriesCEE, SeriesLive}

// ParseSeries accepts a series name case-insensitively.
func ParseSeries(raw string) (Series, error) {
	switch Series(strings.ToUpper(strings.TrimSpace(raw))) {
	case SeriesIOE:
		return SeriesIOE, nil
	case SeriesCEE:
		return SeriesCEE, nil
	case SeriesLive:
		return SeriesLive, nil
	}
	return "", ErrInvalidSeries
}

// ExamTypes are the accepted exam-type preferences ("none" clears it).
var ExamTypes = []string{"IOE", "CEE", "none"}

// NormalizeExamType returns the canonical spelling of a known exam type,
// or the trimmed input when it matches none.
func NormalizeExamType(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, et := range ExamTypes {
		if strings.EqualFold(raw, et) {
			return et
		}
	}
	return raw
}
