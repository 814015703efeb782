package app

import (
	"context"
	"log/slog"
	"time"

	"testseries-service/internal/domain"
)

// LiveSnapshot is one tick of the LIVE series view.
type LiveSnapshot struct {
	At      time.Time     `json:"at"`
	Quizzes []QuizSummary `json:"quizzes"`
}

// LiveWatcher recomputes live quiz states on a ticker for each subscriber.
type LiveWatcher struct {
	quizzes *QuizService
	tick    time.Duration
	refresh time.Duration
}

// NewLiveWatcher ticks every tick and re-reads the quiz list every refresh.
func NewLiveWatcher(quizzes *QuizService, tick, refresh time.Duration) *LiveWatcher {
	if tick <= 0 {
		tick = time.Second
	}
	if refresh < tick {
		refresh = 30 * time.Second
	}
	return &LiveWatcher{quizzes: quizzes, tick: tick, refresh: refresh}
}

// Watch streams snapshots until ctx is done or cancel is called.
// The channel holds at most one pending snapshot; a slow reader only ever sees the latest one.
func (w *LiveWatcher) Watch(ctx context.Context, user domain.User) (<-chan LiveSnapshot, func(), error) {
	quizzes, err := w.quizzes.seriesQuizzes(ctx, user, domain.SeriesLive)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan LiveSnapshot, 1)
	ch <- w.snapshot(quizzes)

	go func() {
		defer close(ch)
		ticker := time.NewTicker(w.tick)
		defer ticker.Stop()
		lastFetch := w.quizzes.opts.now()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			if now := w.quizzes.opts.now(); now.Sub(lastFetch) >= w.refresh {
				fresh, err := w.quizzes.seriesQuizzes(ctx, user, domain.SeriesLive)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					slog.Warn("live watch refresh failed", "user", user.ID, "error", err)
				} else {
					quizzes = fresh
				}
				lastFetch = now
			}

			snap := w.snapshot(quizzes)
			select {
			case ch <- snap:
			default:
				// drop the stale snapshot
				select {
				case <-ch:
				default:
				}
				ch <- snap
			}
		}
	}()

	return ch, cancel, nil
}

func (w *LiveWatcher) snapshot(quizzes []domain.Quiz) LiveSnapshot {
	now := w.quizzes.opts.now()
	out := make([]QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		out = append(out, w.quizzes.summarize(q, now))
	}
	return LiveSnapshot{At: now, Quizzes: out}
}
