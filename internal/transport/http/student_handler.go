package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"testseries-service/internal/app"
	"testseries-service/internal/auth"
	"testseries-service/internal/catalog"
	"testseries-service/internal/domain"
	"testseries-service/internal/i18n"
	"testseries-service/internal/infra/upload"
)

// StudentHandler serves the signed-in student API.
type StudentHandler struct {
	accounts  *app.AccountService
	quizzes   *app.QuizService
	payments  *app.PaymentService
	maxUpload int64
}

func NewStudentHandler(accounts *app.AccountService, quizzes *app.QuizService, payments *app.PaymentService, maxUpload int64) *StudentHandler {
	if maxUpload <= 0 {
		maxUpload = 5 << 20
	}
	return &StudentHandler{accounts: accounts, quizzes: quizzes, payments: payments, maxUpload: maxUpload}
}

func (h *StudentHandler) Routes(r chi.Router) {
	r.Get("/me", h.me)
	r.Patch("/me", h.updateProfile)
	r.Get("/series", h.overview)
	r.Get("/series/{series}", h.listSeries)
	r.Get("/quizzes/{id}", h.startQuiz)
	r.Post("/quizzes/{id}/results", h.submitResult)
	r.Get("/quizzes/{id}/leaderboard", h.leaderboard)
	r.Get("/live/current", h.currentLive)
	r.Post("/payments", h.submitPayment)
}

func currentUser(r *http.Request) domain.User {
	u, _ := auth.UserFromContext(r.Context())
	return u
}

func (h *StudentHandler) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r))
}

func (h *StudentHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeBadRequest(w, r, "BadRequest")
		return
	}
	user, err := h.accounts.UpdateProfile(r.Context(), currentUser(r).ID, update)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *StudentHandler) overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.quizzes.Overview(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *StudentHandler) listSeries(w http.ResponseWriter, r *http.Request) {
	series, err := domain.ParseSeries(chi.URLParam(r, "series"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	listing, err := h.quizzes.ListSeries(r.Context(), currentUser(r), series, catalog.ParseFilter(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *StudentHandler) startQuiz(w http.ResponseWriter, r *http.Request) {
	paper, err := h.quizzes.StartQuiz(r.Context(), currentUser(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

type submitResultRequest struct {
	Answers map[string]string `json:"answers"`
}

func (h *StudentHandler) submitResult(w http.ResponseWriter, r *http.Request) {
	var req submitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, "BadRequest")
		return
	}
	result, err := h.quizzes.SubmitResult(r.Context(), currentUser(r), chi.URLParam(r, "id"), req.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *StudentHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.quizzes.Leaderboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (h *StudentHandler) currentLive(w http.ResponseWriter, r *http.Request) {
	live, err := h.quizzes.CurrentLive(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, live)
}

type paymentResponse struct {
	Payment domain.PaymentRequest `json:"payment"`
	Message string                `json:"message"`
}

func (h *StudentHandler) submitPayment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, domain.Invalid("Payment proof image is too large"))
			return
		}
		writeBadRequest(w, r, "BadRequest")
		return
	}
	file, header, err := r.FormFile(upload.FieldName)
	if err != nil {
		writeBadRequest(w, r, "ImageRequired")
		return
	}
	defer file.Close()
	if header.Size > h.maxUpload {
		writeError(w, r, domain.Invalid("Payment proof image is too large"))
		return
	}

	req, err := h.payments.Submit(r.Context(), currentUser(r), app.PaymentSubmission{
		Series:         r.FormValue("series"),
		FileName:       header.Filename,
		ContentType:    header.Header.Get("Content-Type"),
		Body:           file,
		IdempotencyKey: r.Header.Get("Idempotency-Key"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, paymentResponse{Payment: req, Message: i18n.T(r.Context(), "PaymentSubmitted")})
}
