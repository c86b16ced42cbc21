package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/gymcheckins/internal/auth"
	httptransport "example.com/gymcheckins/internal/transport/http"
)

// RouterConfig collects the cross-cutting pieces of the API router.
type RouterConfig struct {
	Auth   auth.Middleware
	Logger *slog.Logger
}

// NewRouter assembles the full API: panic recovery, request logging, bearer
// auth, probes, Prometheus metrics and the versioned routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Get("/healthz", healthz)
	r.Handle("/metrics", promhttp.Handler())

	h.RegisterRoutes(r)

	return httptransport.Recoverer(logger)(httptransport.RequestLogger(logger)(cfg.Auth.Wrap(r)))
}
