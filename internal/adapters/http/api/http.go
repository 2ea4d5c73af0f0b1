// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/poster"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Titles() []string
	Recommend(ctx context.Context, title string) (model.Recommendations, error)
	ResolvePoster(ctx context.Context, c poster.Candidate) model.PosterAnswer
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	recommendHandler *RecommendHandler
	posterHandler    *PosterHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		recommendHandler: NewRecommendHandler(deps),
		posterHandler:    NewPosterHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", s.healthHandler.HandleMetrics)
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	r.Get("/movies", MetricsMiddleware(s.recommendHandler.HandleMovies, "movies"))
	r.Get("/recommendations", MetricsMiddleware(s.recommendHandler.HandleRecommendations, "recommendations"))
	r.Get("/posters", MetricsMiddleware(s.posterHandler.HandlePoster, "posters"))
}

// RouterOption configures NewRouter.
type RouterOption func(*routerSettings)

type routerSettings struct {
	rateRequests int
	rateWindow   time.Duration
	corsOrigins  []string
}

// WithRateLimit allows requests per window per client IP. Zero requests disables it.
func WithRateLimit(requests int, window time.Duration) RouterOption {
	return func(s *routerSettings) {
		s.rateRequests = requests
		s.rateWindow = window
	}
}

// WithCORSOrigins sets the allowed CORS origins.
func WithCORSOrigins(origins []string) RouterOption {
	return func(s *routerSettings) {
		s.corsOrigins = origins
	}
}

// NewRouter builds a chi router with the global middleware stack.
func NewRouter(opts ...RouterOption) *chi.Mux {
	s := routerSettings{}
	for _, opt := range opts {
		opt(&s)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}
	if s.rateRequests > 0 && s.rateWindow > 0 {
		r.Use(httprate.LimitByIP(s.rateRequests, s.rateWindow))
	}
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}
	switch failure.KindOf(err) {
	case failure.KindNotFound:
		return http.StatusNotFound, "not_found"
	case failure.KindNetwork, failure.KindMalformedResponse:
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
