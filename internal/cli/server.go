package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"testseries-service/internal/app"
	"testseries-service/internal/config"
	"testseries-service/internal/i18n"
	transport "testseries-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if err := i18n.Init(cfg.I18n.Lang); err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	b, err := buildBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	opts := appOptions(cfg)
	quizzes := app.NewQuizService(b.quizzes, b.store, b.store, opts...)
	handler := transport.NewRouter(transport.Services{
		Accounts: app.NewAccountService(b.store, opts...),
		Quizzes:  quizzes,
		Payments: app.NewPaymentService(b.store, b.store, b.uploader, b.guard, app.PaymentConfig{
			Method:   cfg.Payment.Method,
			GuardTTL: config.TTLDuration(cfg.Payment.GuardTTL, 2*time.Minute),
		}, opts...),
		Admin:    app.NewAdminService(b.store, b.quizzes, b.store, b.store, opts...),
		Live:     app.NewLiveWatcher(quizzes, time.Second, 30*time.Second),
		Verifier: b.verifier,
		Uploads:  b.uploads,
	}, transport.RouterConfig{
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	go func() {
		slog.Info("starting testseries service", "port", finalPort, "store", cfg.Store.Driver, "auth", cfg.Auth.Provider)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start server", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
