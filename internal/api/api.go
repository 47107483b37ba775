// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/brightminds/internal/api/health"
	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/projects"
	"github.com/good-yellow-bee/brightminds/internal/extract"
	"github.com/good-yellow-bee/brightminds/internal/storage"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address           string
	JWTSecret         []byte
	TokenTTL          time.Duration
	BcryptCost        int      // 0 selects the bcrypt default
	CORSOrigins       []string // empty allows any origin
	HTTPTLSEnabled    bool
	HTTPTLSCertFile   string
	HTTPTLSKeyFile    string
	RateLimitPerIP    int           // requests per minute on public auth routes
	RateLimitPerUser  int           // requests per minute per authenticated user
	AnalysisDelay     time.Duration // negative disables the delay
	ExtractionURL     string        // empty disables IEP extraction
	ExtractionTimeout time.Duration
	MetricsRoute      bool // serve /metrics on the API listener
	Verbose           bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":5002"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 30 * 24 * time.Hour
	}
	if c.RateLimitPerIP == 0 {
		c.RateLimitPerIP = 20
	}
	if c.RateLimitPerUser == 0 {
		c.RateLimitPerUser = 300
	}
	if c.AnalysisDelay == 0 {
		c.AnalysisDelay = projects.DefaultAnalysisDelay
	}
	if c.ExtractionTimeout == 0 {
		c.ExtractionTimeout = 60 * time.Second
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	storage       storage.Storage
	extractor     *extract.Client
	server        *http.Server
	handler       http.Handler
	healthHandler *health.Handler
	limiters      []*middleware.RateLimiter
}

// New creates a new API server.
func New(cfg *Config, store storage.Storage) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT secret is required")
	}

	cfg.SetDefaults()

	extractor, err := extract.NewClient(extract.Config{
		URL:     cfg.ExtractionURL,
		Timeout: cfg.ExtractionTimeout,
	})
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:        cfg,
		storage:       store,
		extractor:     extractor,
		healthHandler: health.NewHandler(),
	}
	s.healthHandler.RegisterChecker(health.NewStorageChecker("storage", store))

	s.handler = s.setupRouter()

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// extraction uploads wait on the upstream service
		WriteTimeout: cfg.ExtractionTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.HTTPTLSEnabled {
		s.server.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return s, nil
}

// Handler returns the root HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		var err error
		if s.config.HTTPTLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.HTTPTLSCertFile, s.config.HTTPTLSKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	defer s.Close()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	for _, l := range s.limiters {
		l.Stop()
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a health checker to the server.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	if s.healthHandler != nil {
		s.healthHandler.RegisterChecker(c)
	}
}
