package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func uploadServer(t *testing.T, status int, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile(FieldName)
		if err != nil {
			t.Errorf("missing image field: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		if string(body) != "proof-bytes" || header.Filename != "receipt.png" {
			t.Errorf("unexpected upload %q %q", header.Filename, body)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientUpload(t *testing.T) {
	srv := uploadServer(t, http.StatusOK, `{"success":true,"url":"https://cdn.example.com/p/abc.png","filename":"abc.png"}`)
	c := NewClient(srv.URL, srv.Client())

	res, err := c.Upload(context.Background(), "receipt.png", "image/png", strings.NewReader("proof-bytes"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.URL != "https://cdn.example.com/p/abc.png" || res.Filename != "abc.png" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestClientUploadFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
		want   string
	}{
		{"server error with message", http.StatusInternalServerError, `{"error":"disk full"}`, "disk full"},
		{"server error without json", http.StatusBadGateway, `oops`, "status: 502"},
		{"malformed json", http.StatusOK, `{"success":`, "decode upload response"},
		{"not successful", http.StatusOK, `{"success":false,"error":"too large"}`, "too large"},
		{"missing filename", http.StatusOK, `{"success":true,"url":"https://x"}`, "did not return expected data"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := uploadServer(t, tt.status, tt.reply)
			c := NewClient(srv.URL, srv.Client())
			_, err := c.Upload(context.Background(), "receipt.png", "image/png", strings.NewReader("proof-bytes"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFSStoreUploadAndGet(t *testing.T) {
	store, err := NewFSStore(t.TempDir(), "http://localhost:8080/")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	res, err := store.Upload(context.Background(), "receipt.JPG", "image/jpeg", strings.NewReader("jpeg"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(res.Filename, ".jpg") || res.URL != "http://localhost:8080/uploads/"+res.Filename {
		t.Fatalf("unexpected result %+v", res)
	}
	rc, err := store.Get(res.Filename)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "jpeg" {
		t.Fatalf("unexpected content %q", data)
	}

	if _, err := store.Get("../etc/passwd"); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestImageExt(t *testing.T) {
	if got := imageExt("proof", "image/png"); got != ".png" {
		t.Fatalf("expected .png from content type, got %q", got)
	}
	if got := imageExt("proof.exe", "application/octet-stream"); got != ".img" {
		t.Fatalf("expected fallback extension, got %q", got)
	}
}

func TestResponseContract(t *testing.T) {
	raw, _ := json.Marshal(Response{Success: true, URL: "u", Filename: "f"})
	if string(raw) != `{"success":true,"url":"u","filename":"f"}` {
		t.Fatalf("unexpected json %s", raw)
	}
}
