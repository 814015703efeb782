package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"testseries-service/internal/app"
	"testseries-service/internal/domain"
	"testseries-service/internal/i18n"
	"testseries-service/internal/quizimport"
	"testseries-service/internal/schedule"
	"testseries-service/internal/validate"
)

type errResp struct {
	Error string `json:"error"`
}

type messageResp struct {
	Message string `json:"message"`
	Count   *int   `json:"count,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// sentinels maps domain errors to a status and a message id.
var sentinels = []struct {
	err    error
	status int
	msgID  string
}{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "Unauthenticated"},
	{domain.ErrForbidden, http.StatusForbidden, "Forbidden"},
	{domain.ErrSeriesLocked, http.StatusForbidden, "SeriesLocked"},
	{domain.ErrQuizNotFound, http.StatusNotFound, "QuizNotFound"},
	{domain.ErrUserNotFound, http.StatusNotFound, "UserNotFound"},
	{domain.ErrPaymentNotFound, http.StatusNotFound, "PaymentNotFound"},
	{domain.ErrNoLiveQuiz, http.StatusNotFound, "NoLiveQuiz"},
	{domain.ErrInvalidSeries, http.StatusBadRequest, "InvalidSeries"},
	{domain.ErrDuplicateSubmission, http.StatusConflict, "DuplicateSubmission"},
	{domain.ErrUploadFailed, http.StatusBadGateway, "UploadFailed"},
}

// errorResponse resolves an error to a status code and one localized line.
func errorResponse(r *http.Request, err error) (int, string) {
	ctx := r.Context()

	var timing *app.TimingError
	if errors.As(err, &timing) {
		data := map[string]any{"Start": schedule.Display(timing.Start), "End": schedule.Display(timing.End)}
		switch {
		case errors.Is(err, domain.ErrQuizUpcoming):
			return http.StatusConflict, i18n.Td(ctx, "QuizUpcoming", data)
		case errors.Is(err, domain.ErrQuizEnded):
			return http.StatusConflict, i18n.Td(ctx, "QuizEnded", data)
		default:
			return http.StatusConflict, i18n.T(ctx, "QuizTimingInvalid")
		}
	}

	if msg, ok := validate.Message(err); ok {
		return http.StatusBadRequest, msg
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Reason
	}
	var importErr *quizimport.ValidationError
	if errors.As(err, &importErr) {
		return http.StatusBadRequest, importErr.Error()
	}

	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.status, i18n.T(ctx, s.msgID)
		}
	}
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	return http.StatusInternalServerError, i18n.T(ctx, "Internal")
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorResponse(r, err)
	if errors.Is(err, domain.ErrUploadFailed) {
		slog.Warn("proof upload failed", "error", err)
	}
	writeJSON(w, status, errResp{Error: msg})
}

func writeBadRequest(w http.ResponseWriter, r *http.Request, msgID string) {
	writeJSON(w, http.StatusBadRequest, errResp{Error: i18n.T(r.Context(), msgID)})
}
