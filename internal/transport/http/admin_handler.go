package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"testseries-service/internal/app"
	"testseries-service/internal/i18n"
)

// AdminHandler serves the admin dashboard API.
type AdminHandler struct {
	admin    *app.AdminService
	payments *app.PaymentService
}

func NewAdminHandler(admin *app.AdminService, payments *app.PaymentService) *AdminHandler {
	return &AdminHandler{admin: admin, payments: payments}
}

func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/payments", h.listPayments)
	r.Post("/payments/{id}/approve", h.approve)
	r.Post("/payments/{id}/reject", h.reject)
	r.Post("/live-access/grant", h.grantLiveAccess)
	r.Post("/live-access/revoke", h.revokeLiveAccess)
	r.Get("/live-quizzes", h.listLiveQuizzes)
	r.Post("/live-quizzes", h.createLiveQuiz)
	r.Put("/live-quizzes/{id}", h.updateLiveQuiz)
	r.Delete("/live-quizzes/{id}", h.deleteLiveQuiz)
	r.Post("/live-quizzes/{id}/archive", h.toggleArchive)
}

func (h *AdminHandler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.payments.ListPayments(r.Context(), app.PaymentQuery{
		Series: q.Get("series"),
		Search: q.Get("search"),
		SortBy: q.Get("sort"),
		Desc:   strings.EqualFold(q.Get("order"), "desc"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (h *AdminHandler) approve(w http.ResponseWriter, r *http.Request) {
	req, err := h.payments.Approve(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) reject(w http.ResponseWriter, r *http.Request) {
	req, err := h.payments.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *AdminHandler) grantLiveAccess(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.GrantLiveAccess(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResp{Message: i18n.Tp(r.Context(), "LiveAccessGranted", n), Count: &n})
}

func (h *AdminHandler) revokeLiveAccess(w http.ResponseWriter, r *http.Request) {
	n, err := h.admin.RevokeLiveAccess(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResp{Message: i18n.Tp(r.Context(), "LiveAccessRevoked", n), Count: &n})
}

func (h *AdminHandler) listLiveQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.admin.ListLiveQuizzes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (h *AdminHandler) createLiveQuiz(w http.ResponseWriter, r *http.Request) {
	h.saveLiveQuiz(w, r, "", http.StatusCreated)
}

func (h *AdminHandler) updateLiveQuiz(w http.ResponseWriter, r *http.Request) {
	h.saveLiveQuiz(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *AdminHandler) saveLiveQuiz(w http.ResponseWriter, r *http.Request, id string, status int) {
	var in app.LiveQuizInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeBadRequest(w, r, "BadRequest")
		return
	}
	quiz, err := h.admin.SaveLiveQuiz(r.Context(), currentUser(r), id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, quiz)
}

func (h *AdminHandler) deleteLiveQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.admin.DeleteLiveQuiz(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) toggleArchive(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.admin.ToggleArchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}
