package health

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Pinger is implemented by storage backends that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StorageChecker checks the configured database.
type StorageChecker struct {
	name   string
	pinger Pinger
}

// NewStorageChecker creates a checker reported under name (e.g. "mongodb").
func NewStorageChecker(name string, p Pinger) *StorageChecker {
	return &StorageChecker{name: name, pinger: p}
}

// Name returns the checker name.
func (c *StorageChecker) Name() string {
	return c.name
}

// Check verifies the database answers a ping.
func (c *StorageChecker) Check(ctx context.Context) error {
	if c.pinger == nil {
		return errors.New("storage not initialized")
	}
	return c.pinger.Ping(ctx)
}

// HTTPChecker checks that an upstream service responds to a GET.
// An empty URL means the upstream is optional and not configured.
type HTTPChecker struct {
	name   string
	url    string
	client *http.Client
}

// NewHTTPChecker creates an upstream checker.
func NewHTTPChecker(name, url string) *HTTPChecker {
	return &HTTPChecker{
		name:   name,
		url:    url,
		client: &http.Client{Timeout: 3 * time.Second},
	}
}

// Name returns the checker name.
func (c *HTTPChecker) Name() string {
	return c.name
}

// Check issues a GET and fails on transport errors or 5xx answers.
func (c *HTTPChecker) Check(ctx context.Context) error {
	if c.url == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return errors.New(resp.Status)
	}
	return nil
}
