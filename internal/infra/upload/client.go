package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"

	"testseries-service/internal/app"
)

// FieldName is the multipart field the upload endpoint reads the image from.
const FieldName = "image"

// Response is the JSON contract of the upload endpoint.
type Response struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Client posts proof images to a remote upload endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{endpoint: endpoint, http: httpClient}
}

// Upload sends the body as a single multipart file field and validates the reply.
// It never retries.
func (c *Client) Upload(ctx context.Context, filename, contentType string, body io.Reader) (app.UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldName, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return app.UploadResult{}, err
	}
	if _, err := io.Copy(part, body); err != nil {
		return app.UploadResult{}, fmt.Errorf("read proof: %w", err)
	}
	if err := mw.Close(); err != nil {
		return app.UploadResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &buf)
	if err != nil {
		return app.UploadResult{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return app.UploadResult{}, fmt.Errorf("post upload: %w", err)
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && out.Error != "" {
			return app.UploadResult{}, errors.New(out.Error)
		}
		return app.UploadResult{}, fmt.Errorf("upload failed with status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return app.UploadResult{}, fmt.Errorf("decode upload response: %w", decodeErr)
	}
	if !out.Success || out.URL == "" || out.Filename == "" {
		if out.Error != "" {
			return app.UploadResult{}, errors.New(out.Error)
		}
		return app.UploadResult{}, errors.New("upload was not successful or did not return expected data")
	}
	return app.UploadResult{URL: out.URL, Filename: out.Filename}, nil
}
