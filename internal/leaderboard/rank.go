package leaderboard

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"testseries-service/internal/domain"
)

// AnonymousName is shown for results without a user name.
const AnonymousName = "Anonymous"

// Rank orders entries by score descending, breaking ties by name in locale order.
// Rank is the 1-based position after sorting, so equal scores still get distinct ranks.
func Rank(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	out := make([]domain.LeaderboardEntry, len(entries))
	copy(out, entries)
	for i := range out {
		if strings.TrimSpace(out[i].Name) == "" {
			out[i].Name = AnonymousName
		}
	}
	// collators are not safe for concurrent use
	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return col.CompareString(out[i].Name, out[j].Name) < 0
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// FromResults builds a ranked board from stored results, keeping each user's best attempt.
func FromResults(quizID, title string, results []domain.QuizResult, now time.Time) domain.Leaderboard {
	best := make(map[string]domain.LeaderboardEntry, len(results))
	order := make([]string, 0, len(results))
	for _, r := range results {
		key := r.UserID
		if key == "" {
			key = "result:" + r.ID
		}
		cur, ok := best[key]
		if !ok {
			order = append(order, key)
		}
		if !ok || r.Score > cur.Score {
			best[key] = domain.LeaderboardEntry{UserID: r.UserID, Name: r.UserName, Score: r.Score}
		}
	}
	entries := make([]domain.LeaderboardEntry, 0, len(order))
	for _, k := range order {
		entries = append(entries, best[k])
	}
	return domain.Leaderboard{
		QuizID:    quizID,
		QuizTitle: title,
		Entries:   Rank(entries),
		UpdatedAt: now,
	}
}
