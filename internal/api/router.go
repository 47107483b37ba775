package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/brightminds/internal/api/auth"
	"github.com/good-yellow-bee/brightminds/internal/api/beta"
	"github.com/good-yellow-bee/brightminds/internal/api/feedback"
	"github.com/good-yellow-bee/brightminds/internal/api/middleware"
	"github.com/good-yellow-bee/brightminds/internal/api/projects"
	"github.com/good-yellow-bee/brightminds/internal/api/response"
	"github.com/good-yellow-bee/brightminds/internal/api/users"
	"github.com/good-yellow-bee/brightminds/internal/metrics"
)

const banner = "BrightMinds API is running..."

// setupRouter creates and configures the chi router with all routes.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	jwtService := auth.NewJWTService(s.config.JWTSecret, s.config.TokenTTL)
	protect := middleware.Protect(jwtService, s.storage)

	ipLimiter := middleware.NewRateLimiter(s.config.RateLimitPerIP)
	userLimiter := middleware.NewRateLimiter(s.config.RateLimitPerUser)
	s.limiters = append(s.limiters, ipLimiter, userLimiter)

	// Global middleware
	r.Use(middleware.RequestLogger(s.config.Verbose))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(s.config.CORSOrigins))
	r.Use(middleware.PrometheusMiddleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.JSONError(w, response.NewNotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusMethodNotAllowed, &response.Error{Message: "Method not allowed"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(banner))
	})

	// Health checks (public, no rate limit)
	r.Get("/health", s.healthHandler.Health)
	r.Get("/health/live", s.healthHandler.Live)
	r.Get("/health/ready", s.healthHandler.Ready)
	if s.config.MetricsRoute {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth routes with IP rate limiting
		r.Route("/auth", func(r chi.Router) {
			authHandler := auth.NewHandler(s.storage, jwtService, s.config.BcryptCost)

			r.Use(middleware.RateLimitByIP(ipLimiter))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(protect)
			r.Use(middleware.RateLimitByUser(userLimiter))

			r.Route("/users", func(r chi.Router) {
				userHandler := users.NewHandler(s.storage)

				r.Get("/me", userHandler.Me)
				r.Put("/me", userHandler.UpdateMe)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperAdmin)
					r.Get("/", userHandler.List)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				projectHandler := projects.NewHandler(s.storage, projects.ProjectLabels)
				analysisHandler := projects.NewAnalysisHandler(s.config.AnalysisDelay)
				extractHandler := projects.NewExtractHandler(s.extractor)

				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)
				r.Post("/analysis", analysisHandler.Analyze)
				r.Post("/extract-iep", extractHandler.ExtractIEP)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Put("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)

					r.Post("/progress", projectHandler.AddProgressItem)
					r.Put("/progress/{itemId}", projectHandler.UpdateProgressItem)
					r.Delete("/progress/{itemId}", projectHandler.DeleteProgressItem)
				})
			})

			r.Route("/parent/children", func(r chi.Router) {
				childHandler := projects.NewHandler(s.storage, projects.ChildLabels)

				r.Get("/", childHandler.List)
				r.Post("/", childHandler.Create)
				r.Get("/{id}", childHandler.Get)
				r.Put("/{id}", childHandler.Update)
				r.Delete("/{id}", childHandler.Delete)
			})

			r.Route("/beta", func(r chi.Router) {
				betaHandler := beta.NewHandler(s.storage)

				r.Get("/status", betaHandler.Status)
				r.Post("/accept", betaHandler.Accept)
				r.Post("/decline", betaHandler.Decline)
				r.Patch("/confirmation-seen", betaHandler.ConfirmationSeen)
			})

			r.Route("/feedback", func(r chi.Router) {
				feedbackHandler := feedback.NewHandler(s.storage)

				r.Post("/", feedbackHandler.Submit)
				r.Get("/my-feedback", feedbackHandler.Mine)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperAdmin)
					r.Get("/", feedbackHandler.List)
					r.Patch("/{id}/status", feedbackHandler.UpdateStatus)
				})
			})
		})
	})

	return r
}
