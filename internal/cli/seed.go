package cli

import (
	"context"
	"fmt"
	"time"

	"testseries-service/internal/domain"
	"testseries-service/internal/infra/memory"
)

const liveLayout = "2006-01-02T15:04"

// seedDemo fills an in-memory store so a fresh checkout has something to browse.
func seedDemo(ctx context.Context, store *memory.Store, now time.Time) error {
	q := func(n int, correct string) domain.Question {
		return domain.Question{
			ID:            fmt.Sprintf("q-%d", n),
			Number:        fmt.Sprint(n),
			Text:          fmt.Sprintf("What is %d + %d?", n, n),
			Option1:       fmt.Sprint(2*n - 1),
			Option2:       fmt.Sprint(2 * n),
			Option3:       fmt.Sprint(2*n + 1),
			Option4:       fmt.Sprint(2*n + 2),
			CorrectOption: correct,
			Marks:         1,
		}
	}
	quizzes := []domain.Quiz{
		{
			ID:        "ioe-set-1",
			Details:   domain.Details{Title: "IOE Set 1", Grade: "IOE", TimeLimit: 120, TargetAudience: "IOE aspirants"},
			Questions: []domain.Question{q(1, "option2"), q(2, "option2")},
			CreatedAt: now.Add(-48 * time.Hour),
		},
		{
			ID:        "ioe-capsule-1",
			Details:   domain.Details{Title: "Daily Capsule 1", Grade: "IOE", TimeLimit: 15},
			Questions: []domain.Question{q(3, "6")},
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID:        "cee-set-1",
			Details:   domain.Details{Title: "CEE Set 1", Grade: "CEE", TimeLimit: 120, TargetAudience: "CEE aspirants"},
			Questions: []domain.Question{q(4, "8")},
			CreatedAt: now.Add(-24 * time.Hour),
		},
		{
			ID:   "live-demo",
			Type: domain.QuizTypeLive,
			Details: domain.Details{
				ID:        "live-demo",
				Title:     "Live Set 1",
				Grade:     "IOE",
				TimeLimit: 30,
				StartTime: now.Add(5 * time.Minute).Format(liveLayout),
				EndTime:   now.Add(65 * time.Minute).Format(liveLayout),
				ExamType:  "IOE",
			},
			Questions: []domain.Question{q(5, "option2")},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	for _, quiz := range quizzes {
		if err := store.SaveQuiz(ctx, quiz); err != nil {
			return err
		}
	}
	return nil
}
