package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"testseries-service/internal/app"
	"testseries-service/internal/auth"
	"testseries-service/internal/config"
	"testseries-service/internal/domain"
	fsstore "testseries-service/internal/infra/firestore"
	"testseries-service/internal/infra/memory"
	"testseries-service/internal/infra/postgres"
	rediscache "testseries-service/internal/infra/redis"
	"testseries-service/internal/infra/upload"
)

// backend holds the infrastructure chosen by the config.
type backend struct {
	store    app.Store
	quizzes  app.QuizRepository
	guard    app.SubmissionGuard
	uploader app.ProofUploader
	uploads  *upload.FSStore
	verifier auth.Verifier
	closers  []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func appOptions(cfg config.Config) []app.Option {
	prices := make(map[domain.Series]int64, len(cfg.Payment.Prices))
	for name, price := range cfg.Payment.Prices {
		series, err := domain.ParseSeries(name)
		if err != nil {
			slog.Warn("ignoring price for unknown series", "series", name)
			continue
		}
		prices[series] = price
	}
	return []app.Option{
		app.WithLocation(cfg.Location()),
		app.WithPrices(prices),
	}
}

func buildBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{}
	ok := false
	defer func() {
		if !ok {
			b.Close()
		}
	}()

	var fbApp *firebase.App
	if cfg.Store.Driver == "firestore" || cfg.Auth.Provider == "firebase" {
		var err error
		fbApp, err = fsstore.NewApp(ctx, cfg.Firestore.ProjectID, cfg.Firestore.CredentialsFile)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Store.Driver {
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		b.closers = append(b.closers, pool.Close)
		b.store = postgres.NewStore(pool)
	case "firestore":
		store, err := fsstore.Open(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = store.Close() })
		b.store = store
	case "memory":
		store := memory.NewStore()
		if err := seedDemo(ctx, store, time.Now().In(cfg.Location())); err != nil {
			return nil, err
		}
		b.store = store
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	slog.Info("document store ready", "driver", cfg.Store.Driver)

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		b.quizzes = rediscache.NewQuizRepository(client, b.store, config.TTLDuration(cfg.Redis.TTL, quizTTL))
		b.guard = rediscache.NewSubmissionGuard(client)
	} else {
		b.quizzes = memory.NewQuizRepository(b.store, quizTTL)
		b.guard = memory.NewSubmissionGuard()
	}

	if cfg.Upload.LocalDir != "" || cfg.Upload.Endpoint == "" {
		fs, err := upload.NewFSStore(cfg.Upload.LocalDir, cfg.Upload.PublicURL)
		if err != nil {
			return nil, fmt.Errorf("init upload dir: %w", err)
		}
		b.uploads = fs
		b.uploader = fs
	}
	if cfg.Upload.Endpoint != "" {
		b.uploader = upload.NewClient(cfg.Upload.Endpoint, nil)
	}

	switch cfg.Auth.Provider {
	case "firebase":
		v, err := auth.NewFirebaseVerifier(ctx, fbApp)
		if err != nil {
			return nil, err
		}
		b.verifier = v
	case "jwt":
		v, err := newJWTVerifier(cfg)
		if err != nil {
			return nil, err
		}
		b.verifier = v
	default:
		return nil, fmt.Errorf("unknown auth provider %q", cfg.Auth.Provider)
	}

	ok = true
	return b, nil
}

func newJWTVerifier(cfg config.Config) (*auth.JWTVerifier, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required for the jwt provider")
	}
	return auth.NewJWTVerifier(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.JWTTTL, 24*time.Hour)), nil
}
