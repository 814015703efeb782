package http

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"testseries-service/internal/infra/upload"
)

// UploadHandler stands in for the remote proof upload endpoint when proofs are kept locally.
type UploadHandler struct {
	store    *upload.FSStore
	maxBytes int64
}

func NewUploadHandler(store *upload.FSStore, maxBytes int64) *UploadHandler {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &UploadHandler{store: store, maxBytes: maxBytes}
}

// Routes mounts the handler; writes go through authn, reads stay public so proof URLs open in a browser.
func (h *UploadHandler) Routes(r chi.Router, authn func(http.Handler) http.Handler) {
	r.With(authn).Post("/", h.put)
	r.Get("/{filename}", h.get)
}

func (h *UploadHandler) put(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, upload.Response{Error: "invalid multipart body"})
		return
	}
	file, header, err := r.FormFile(upload.FieldName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, upload.Response{Error: "no image uploaded"})
		return
	}
	defer file.Close()
	if !strings.HasPrefix(header.Header.Get("Content-Type"), "image/") {
		writeJSON(w, http.StatusBadRequest, upload.Response{Error: "only images are accepted"})
		return
	}
	res, err := h.store.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		slog.Error("store upload", "error", err)
		writeJSON(w, http.StatusInternalServerError, upload.Response{Error: "failed to store image"})
		return
	}
	writeJSON(w, http.StatusOK, upload.Response{Success: true, URL: res.URL, Filename: res.Filename})
}

func (h *UploadHandler) get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	rc, err := h.store.Get(name)
	if errors.Is(err, upload.ErrInvalidKey) || errors.Is(err, fs.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("read upload", "file", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	defer rc.Close()
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	_, _ = io.Copy(w, rc)
}
