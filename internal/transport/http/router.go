package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"testseries-service/internal/app"
	"testseries-service/internal/auth"
	"testseries-service/internal/i18n"
	"testseries-service/internal/infra/upload"
)

// Services bundles what the router exposes.
type Services struct {
	Accounts *app.AccountService
	Quizzes  *app.QuizService
	Payments *app.PaymentService
	Admin    *app.AdminService
	Live     *app.LiveWatcher
	Verifier auth.Verifier
	// Uploads is optional; when set the router also serves /uploads.
	Uploads *upload.FSStore
}

// RouterConfig holds the transport settings.
type RouterConfig struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter wires the REST API, the live WebSocket stream and the optional local upload endpoint.
func NewRouter(svc Services, cfg RouterConfig) http.Handler {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(i18n.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	authn := auth.Middleware(svc.Verifier, svc.Accounts, writeError)
	ws := NewWSHandler(svc.Live, nil)
	r.With(authn).Get("/ws/live", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Use(authn)
		r.Use(middleware.Timeout(30 * time.Second))
		NewStudentHandler(svc.Accounts, svc.Quizzes, svc.Payments, cfg.MaxUploadBytes).Routes(r)
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin(writeError))
			NewAdminHandler(svc.Admin, svc.Payments).Routes(r)
		})
	})

	if svc.Uploads != nil {
		uploads := NewUploadHandler(svc.Uploads, cfg.MaxUploadBytes)
		r.Route("/uploads", func(r chi.Router) { uploads.Routes(r, authn) })
	}
	return r
}
