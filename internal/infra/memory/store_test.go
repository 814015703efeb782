package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"testseries-service/internal/domain"
)

func TestStoreListQuizzesAppliesQuery(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = store.SaveQuiz(ctx, domain.Quiz{ID: "ioe", Details: domain.Details{Grade: "IOE"}, CreatedAt: base})
	_ = store.SaveQuiz(ctx, domain.Quiz{ID: "live", Type: domain.QuizTypeLive, CreatedAt: base.Add(time.Hour)})
	_ = store.SaveQuiz(ctx, domain.Quiz{ID: "old", Type: domain.QuizTypeLive, Archive: true, CreatedAt: base.Add(2 * time.Hour)})

	live, _ := store.ListQuizzes(ctx, domain.QuizQuery{LiveOnly: true})
	if len(live) != 1 || live[0].ID != "live" {
		t.Fatalf("expected only unarchived live quiz, got %+v", live)
	}
	all, _ := store.ListQuizzes(ctx, domain.QuizQuery{LiveOnly: true, IncludeArchived: true})
	if len(all) != 2 {
		t.Fatalf("expected archived included, got %d", len(all))
	}
	ioe, _ := store.ListQuizzes(ctx, domain.QuizQuery{Grades: []string{"IOE"}, ExcludeLive: true})
	if len(ioe) != 1 || ioe[0].ID != "ioe" {
		t.Fatalf("expected ioe only, got %+v", ioe)
	}
}

func TestStoreApprovePaymentGrantsSeries(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.SaveUser(ctx, domain.User{ID: "u1", Email: "a@b.c"})
	_ = store.CreatePayment(ctx, domain.PaymentRequest{ID: "p1", UserID: "u1", Series: domain.SeriesCEE, Status: domain.PaymentPending})

	p, err := store.ApprovePayment(ctx, "p1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if p.Status != domain.PaymentApproved {
		t.Fatalf("expected approved, got %s", p.Status)
	}
	u, _ := store.GetUser(ctx, "u1")
	if !u.CEEAccess || u.IOEAccess {
		t.Fatalf("expected only CEE granted, got %+v", u)
	}
	if _, err := store.ApprovePayment(ctx, "missing"); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestStoreSetLiveTestAccessIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_ = store.SaveUser(ctx, domain.User{ID: "u1"})

	if err := store.SetLiveTestAccess(ctx, []string{"u1", "ghost"}, true); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	u, _ := store.GetUser(ctx, "u1")
	if u.LiveTestAccess {
		t.Fatalf("expected no partial update")
	}
}
