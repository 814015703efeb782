package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"testseries-service/internal/app"
)

// ErrInvalidKey rejects keys that would escape the store directory.
var ErrInvalidKey = errors.New("invalid upload key")

// FSStore keeps uploaded proofs on the local filesystem and serves them back
// under publicURL.
type FSStore struct {
	base      string
	publicURL string
}

func NewFSStore(base, publicURL string) (*FSStore, error) {
	if base == "" {
		base = "./data/uploads"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

func cleanKey(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || key == "." || key == ".." {
		return "", ErrInvalidKey
	}
	return key, nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	f, err := os.Create(filepath.Join(s.base, key))
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.base, key))
}

// URL is the public address of a stored key.
func (s *FSStore) URL(key string) string {
	return s.publicURL + path.Join("/uploads", url.PathEscape(key))
}

// Upload stores the body under a fresh name keeping a known image extension.
func (s *FSStore) Upload(_ context.Context, filename, contentType string, body io.Reader) (app.UploadResult, error) {
	name := uuid.NewString() + imageExt(filename, contentType)
	if _, err := s.Put(name, body); err != nil {
		return app.UploadResult{}, fmt.Errorf("store upload: %w", err)
	}
	return app.UploadResult{URL: s.URL(name), Filename: name}, nil
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

func imageExt(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); imageExts[ext] {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		for _, ext := range exts {
			if imageExts[ext] {
				return ext
			}
		}
	}
	return ".img"
}
