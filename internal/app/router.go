package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	openapimiddleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leadflow-crm/api/internal/audit"
	"github.com/leadflow-crm/api/internal/config"
	"github.com/leadflow-crm/api/internal/handlers"
	"github.com/leadflow-crm/api/internal/httpx"
	"github.com/leadflow-crm/api/internal/middleware"
	"github.com/leadflow-crm/api/internal/store"
)

func NewRouter(cfg config.Config, db *pgxpool.Pool, logger *slog.Logger) (http.Handler, error) {
	specPath := "openapi.yaml"
	if _, err := os.Stat(specPath); err != nil {
		return nil, fmt.Errorf("openapi spec not found at %s: %w", specPath, err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}

	q := store.New(db)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(cfg.Env))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(func(req *http.Request) string {
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			return rctx.RoutePattern()
		}
		return ""
	}))
	r.Use(middleware.LimitBodyBytesWithOverrides(cfg.APIMaxBodyBytes, []middleware.BodyLimitOverride{
		{PathPrefix: "/admin/leads/import", MaxBytes: cfg.ImportMaxFileBytes + 1<<20},
	}))

	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	api := chi.NewRouter()
	api.Use(openapimiddleware.OapiRequestValidatorWithOptions(doc, &openapimiddleware.Options{
		SilenceServersWarning: true,
		ErrorHandler: func(w http.ResponseWriter, message string, statusCode int) {
			requestID := w.Header().Get("X-Request-Id")
			httpx.WriteJSON(w, statusCode, httpx.ErrorEnvelope{
				Error:     httpx.ErrorBody{Code: "validation_error", Message: message},
				RequestID: requestID,
			})
		},
	}))

	auditLogger := audit.NewLogger(q, logger)
	h := handlers.NewServer(cfg, q, auditLogger, logger, db)

	authMW := middleware.AuthMiddleware{Queries: q, CookieName: cfg.SessionCookieName}
	csrf := middleware.EnforceCSRF(cfg.CSRFEnforce)
	loginLimiter := middleware.NewIPRateLimiter(10, time.Minute)
	importLimiter := middleware.NewIPRateLimiter(5, time.Minute)

	api.Group(func(public chi.Router) {
		public.With(loginLimiter.Middleware("Too many login attempts")).Post("/auth/login", h.PostAuthLogin)
		public.Get("/health", h.GetHealth)
	})

	api.Group(func(protected chi.Router) {
		protected.Use(authMW.RequireAuth)

		protected.Get("/auth/me", h.GetAuthMe)
		protected.Get("/auth/csrf", h.GetAuthCsrf)
		protected.With(csrf).Post("/auth/logout", h.PostAuthLogout)

		protected.Get("/leads", h.GetLeads)
		protected.With(csrf).Post("/leads", h.PostLeads)
		protected.With(csrf).Post("/leads/bulk-status", h.PostLeadsBulkStatus)
		protected.With(csrf).Post("/leads/bulk-delete", h.PostLeadsBulkDelete)
		protected.Get("/leads/{id}", h.GetLead)
		protected.With(csrf).Put("/leads/{id}", h.PutLead)
		protected.With(middleware.RequireAdmin, csrf).Delete("/leads/{id}", h.DeleteLead)

		protected.Get("/products", h.GetProducts)
		protected.With(middleware.RequireAdmin, csrf).Post("/products", h.PostProducts)
		protected.Get("/sources", h.GetSources)
		protected.With(middleware.RequireAdmin, csrf).Post("/sources", h.PostSources)

		protected.Get("/communications", h.GetCommunications)
		protected.With(csrf).Post("/communications", h.PostCommunications)
		protected.Get("/interactions", h.GetInteractions)
		protected.With(csrf).Post("/interactions", h.PostInteractions)

		protected.Get("/users", h.GetUsers)
		protected.With(middleware.RequireAdmin, csrf).Post("/admin/users", h.PostAdminUsers)
		protected.With(middleware.RequireAdmin, csrf).Patch("/admin/users/{id}", h.PatchAdminUser)
		protected.With(middleware.RequireAdmin).Get("/admin/users/{id}/stats", h.GetAdminUserStats)

		protected.With(
			middleware.RequireAdmin,
			csrf,
			importLimiter.Middleware("Too many import requests"),
		).Post("/admin/leads/import", h.PostAdminLeadsImport)

		protected.Get("/exports/leads.csv", h.GetExportLeadsCSV)
		protected.Get("/analytics", h.GetAnalytics)
		protected.Get("/dashboard/stats", h.GetDashboardStats)
	})

	r.Mount("/api", api)
	return r, nil
}
