package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"coursegate/pkg/platform/middleware/admin"
	"coursegate/pkg/platform/middleware/auth"
	"coursegate/pkg/platform/middleware/metadata"
	request "coursegate/pkg/platform/middleware/request"
	"coursegate/pkg/platform/middleware/requesttime"
)

// RouterConfig carries the collaborators of the backend HTTP surface.
type RouterConfig struct {
	Claims         ClaimsService
	Roles          RoleAdmin
	TokenValidator auth.TokenValidator
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	ProfileMaxAge  time.Duration
	TrustProxy     bool
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata(cfg.TrustProxy))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(cfg.TokenValidator, logger))
		NewClaimsHandler(cfg.Claims, logger, cfg.ProfileMaxAge).Register(r)

		r.Group(func(r chi.Router) {
			r.Use(admin.RequireAuthorized(admin.AuthorizerFunc(RequireRoleAdmin(cfg.Claims)), logger))
			NewAdminHandler(cfg.Roles, logger).Register(r)
		})
	})
	return r
}
