package app_test

import (
	"context"
	"testing"
	"time"

	"testseries-service/internal/app"
	"testseries-service/internal/domain"
	"testseries-service/internal/schedule"
)

func TestLiveWatcherStreamsUntilCancelled(t *testing.T) {
	f := newFixture(t)
	watcher := app.NewLiveWatcher(f.quizzes, 10*time.Millisecond, time.Hour)
	user := domain.User{ID: "u1", LiveTestAccess: true, ExamType: "CEE"}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	updates, cancel, err := watcher.Watch(ctx, user)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case snap, ok := <-updates:
			if !ok {
				t.Fatalf("channel closed early")
			}
			if len(snap.Quizzes) != 1 || snap.Quizzes[0].ID != "live-upcoming" {
				t.Fatalf("unexpected snapshot %+v", snap)
			}
			live := snap.Quizzes[0].Live
			if live == nil || live.Status != schedule.StatusUpcoming || live.Countdown != "02:00:00" {
				t.Fatalf("unexpected live state %+v", live)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for snapshot %d", i)
		}
	}

	cancel()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-updates:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatalf("expected channel to close after cancel")
		}
	}
}
