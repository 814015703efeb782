package catalog

import (
	"sort"
	"strings"

	"testseries-service/internal/domain"
)

// Filter selects which kinds a series listing shows.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterSet     Filter = "set"
	FilterCapsule Filter = "capsule"
)

// ParseFilter maps a query value to a Filter, defaulting to all.
func ParseFilter(raw string) Filter {
	switch Filter(strings.ToLower(strings.TrimSpace(raw))) {
	case FilterSet:
		return FilterSet
	case FilterCapsule:
		return FilterCapsule
	}
	return FilterAll
}

// SortQuizzes returns a copy ordered by title ordinal, then creation time (oldest first).
func SortQuizzes(quizzes []domain.Quiz) []domain.Quiz {
	out := make([]domain.Quiz, len(quizzes))
	copy(out, quizzes)
	keys := make(map[string]int, len(out))
	for _, q := range out {
		keys[q.ID] = SortKey(q.Title())
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := keys[out[i].ID], keys[out[j].ID]
		if ki != kj {
			return ki < kj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FilterKind keeps quizzes whose title classifies as the filter's kind.
func FilterKind(quizzes []domain.Quiz, f Filter) []domain.Quiz {
	if f == FilterAll {
		return quizzes
	}
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if string(ParseTitle(q.Title()).Kind) == string(f) {
			out = append(out, q)
		}
	}
	return out
}

// Counts tallies a listing by kind.
type Counts struct {
	All     int `json:"all"`
	Set     int `json:"set"`
	Capsule int `json:"capsule"`
}

// CountKinds counts set and capsule titles in a listing.
func CountKinds(quizzes []domain.Quiz) Counts {
	c := Counts{All: len(quizzes)}
	for _, q := range quizzes {
		switch ParseTitle(q.Title()).Kind {
		case KindSet:
			c.Set++
		case KindCapsule:
			c.Capsule++
		}
	}
	return c
}

// Partition selects the quizzes belonging to a series for a viewer.
// IOE and CEE match the grade exactly among non-live quizzes; LIVE takes unarchived live
// quizzes narrowed by the viewer's exam-type preference.
func Partition(quizzes []domain.Quiz, series domain.Series, examType string) []domain.Quiz {
	out := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		switch series {
		case domain.SeriesLive:
			if q.IsLive() && !q.Archive && MatchesExamType(q, examType) {
				out = append(out, q)
			}
		default:
			if !q.IsLive() && q.Details.Grade == string(series) {
				out = append(out, q)
			}
		}
	}
	return out
}

// MatchesExamType reports whether a live quiz fits the exam-type preference.
// An empty preference (or "none") matches everything.
func MatchesExamType(q domain.Quiz, examType string) bool {
	pref := strings.TrimSpace(examType)
	if pref == "" || strings.EqualFold(pref, "none") {
		return true
	}
	tag, grade := q.ExamTag(), q.Grade()
	if tag == pref || grade == pref {
		return true
	}
	up := strings.ToUpper(pref)
	return strings.Contains(strings.ToUpper(tag), up) || strings.Contains(strings.ToUpper(grade), up)
}

// Unlocked reports whether the user may open the series.
func Unlocked(u domain.User, s domain.Series) bool {
	return u.HasAccess(s)
}
