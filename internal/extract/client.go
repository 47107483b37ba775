// Package extract talks to the external IEP document extraction service.
package extract

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
	"path/filepath"
	"strings"
	"time"
)

// MaxFileSize is the largest document accepted for extraction.
const MaxFileSize = 10 << 20

// ErrNotConfigured is returned when no extraction service URL is set.
var ErrNotConfigured = errors.New("extraction service not configured")

// ErrUnsupportedType is returned for files that are not PDF or Word documents.
var ErrUnsupportedType = errors.New("only PDF and Word documents are supported")

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// Config holds the extraction service configuration.
type Config struct {
	URL     string        // full endpoint URL receiving the multipart upload
	Timeout time.Duration // per-request timeout, default 60s
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.URL == "" {
		return ErrNotConfigured
	}
	if !strings.HasPrefix(c.URL, "http://") && !strings.HasPrefix(c.URL, "https://") {
		return fmt.Errorf("extraction URL must be http or https")
	}
	return nil
}

// Client posts documents to the extraction service.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an extraction client. A zero Config yields a client
// whose Extract always returns ErrNotConfigured.
func NewClient(config Config) (*Client, error) {
	if config.URL != "" {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("invalid extraction config: %w", err)
		}
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}, nil
}

// Configured reports whether a service URL is set.
func (c *Client) Configured() bool {
	return c != nil && c.config.URL != ""
}

// ContentType returns the MIME type for a supported file name.
func ContentType(filename string) (string, error) {
	ct, ok := allowedExtensions[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", ErrUnsupportedType
	}
	return ct, nil
}

// UpstreamError is a non-2xx answer from the extraction service.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("extraction service error: status %d, body: %s", e.Status, e.Body)
}

// Extract uploads the document under the multipart field "file" and returns
// the service's JSON answer untouched.
func (c *Client) Extract(ctx context.Context, filename string, file io.Reader) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	contentType, err := ContentType(filename)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, io.LimitReader(file, MaxFileSize+1)); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: truncate(string(data), 1024)}
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("extraction service returned invalid JSON")
	}
	return json.RawMessage(data), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
