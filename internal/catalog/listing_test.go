package catalog

import (
	"testing"
	"time"

	"testseries-service/internal/domain"
)

var base = time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

func quiz(id, title string, createdOffset time.Duration) domain.Quiz {
	return domain.Quiz{
		ID:        id,
		Details:   domain.Details{Title: title, Grade: "IOE"},
		CreatedAt: base.Add(createdOffset),
	}
}

func ids(quizzes []domain.Quiz) []string {
	out := make([]string, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, q.ID)
	}
	return out
}

func equalIDs(t *testing.T, got []domain.Quiz, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestSortQuizzesByNumber(t *testing.T) {
	in := []domain.Quiz{
		quiz("q3", "Set 3", 0),
		quiz("q1", "Set 1", 0),
		quiz("q2", "Set 2", 0),
	}
	equalIDs(t, SortQuizzes(in), "q1", "q2", "q3")
	// input untouched
	equalIDs(t, in, "q3", "q1", "q2")
}

func TestSortQuizzesZeroFallsBackToCreation(t *testing.T) {
	in := []domain.Quiz{
		quiz("late", "Orientation", 2*time.Hour),
		quiz("early", "Warm up", time.Hour),
		quiz("one", "Set 1", 0),
	}
	equalIDs(t, SortQuizzes(in), "early", "late", "one")
}

func TestFilterAndCount(t *testing.T) {
	in := []domain.Quiz{
		quiz("a", "Set 1", 0),
		quiz("b", "Capsule 1", 0),
		quiz("c", "Set 2", 0),
		quiz("d", "Orientation", 0),
	}
	c := CountKinds(in)
	if c.All != 4 || c.Set != 2 || c.Capsule != 1 {
		t.Fatalf("unexpected counts %+v", c)
	}
	equalIDs(t, FilterKind(in, FilterSet), "a", "c")
	equalIDs(t, FilterKind(in, FilterCapsule), "b")
	equalIDs(t, FilterKind(in, ParseFilter("bogus")), "a", "b", "c", "d")
}

func TestPartitionRegularSeries(t *testing.T) {
	ioe := quiz("ioe", "Set 1", 0)
	cee := quiz("cee", "Set 1", 0)
	cee.Details.Grade = "CEE"
	liveIOE := quiz("live", "Set 1", 0)
	liveIOE.Type = domain.QuizTypeLive

	equalIDs(t, Partition([]domain.Quiz{ioe, cee, liveIOE}, domain.SeriesIOE, ""), "ioe")
	equalIDs(t, Partition([]domain.Quiz{ioe, cee, liveIOE}, domain.SeriesCEE, ""), "cee")
}

func TestPartitionLiveByExamType(t *testing.T) {
	mk := func(id, grade, subject string, archived bool) domain.Quiz {
		return domain.Quiz{
			ID:      id,
			Type:    domain.QuizTypeLive,
			Archive: archived,
			Subject: subject,
			Details: domain.Details{Title: id, Grade: grade},
		}
	}
	all := []domain.Quiz{
		mk("ioe-grade", "IOE", "", false),
		mk("cee-subject", "LIVE", "CEE", false),
		mk("ioe-mixed", "ioe entrance", "", false),
		mk("archived", "IOE", "", true),
	}

	equalIDs(t, Partition(all, domain.SeriesLive, "IOE"), "ioe-grade", "ioe-mixed")
	equalIDs(t, Partition(all, domain.SeriesLive, "CEE"), "cee-subject")
	equalIDs(t, Partition(all, domain.SeriesLive, ""), "ioe-grade", "cee-subject", "ioe-mixed")
	equalIDs(t, Partition(all, domain.SeriesLive, "none"), "ioe-grade", "cee-subject", "ioe-mixed")
}

func TestUnlocked(t *testing.T) {
	u := domain.User{IOEAccess: true}
	if !Unlocked(u, domain.SeriesIOE) {
		t.Fatalf("expected IOE unlocked")
	}
	if Unlocked(u, domain.SeriesLive) {
		t.Fatalf("expected LIVE locked")
	}
}
