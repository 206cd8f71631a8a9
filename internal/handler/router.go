package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Verifier  auth.TokenVerifier
	Extractor auth.TokenExtractor // defaults to auth.DefaultExtractors()
	Logger    *slog.Logger
	// Registry receives the HTTP metrics and is served at /metrics.
	// Metrics are off when nil.
	Registry   *prometheus.Registry
	CORSOrigin string
}

// NewRouter wires every route. Protected routes share one subrouter so the
// auth gate is a single choke point.
func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	if opts.Extractor == nil {
		opts.Extractor = auth.DefaultExtractors()
	}

	r := mux.NewRouter()
	r.Use(middleware.Logging(opts.Logger))
	if opts.Registry != nil {
		r.Use(middleware.NewMetrics(opts.Registry).Middleware)
		r.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	// Public routes
	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", h.Logout).Methods(http.MethodPost)

	// Protected routes
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.RequireAuth(opts.Verifier, opts.Extractor))
	protected.HandleFunc("/me", h.Me).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", h.ListTransactions).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", h.CreateTransaction).Methods(http.MethodPost)
	protected.HandleFunc("/analytics", h.Analytics).Methods(http.MethodGet)

	return middleware.CORS(opts.CORSOrigin)(r)
}
