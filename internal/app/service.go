// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	workerpool "github.com/okian/marquee/internal/adapters/mq/worker"
	"github.com/okian/marquee/internal/domain/catalog"
	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/poster"
	"github.com/okian/marquee/internal/domain/ranking"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultWorkerCount = 5
	// DefaultPlaceholder is shown whenever no poster can be resolved.
	DefaultPlaceholder = "https://m.media-amazon.com/images/G/01/imdb/images-ANDW73HA/favicon-192x192.png"
)

// ErrNotStarted is returned by operations that need the worker pool.
var ErrNotStarted = errors.New("service not started")

// Recommender ranks catalog neighbours for a title.
type Recommender interface {
	Neighbors(ctx context.Context, title string) ([]ranking.Neighbor, error)
	TopN() int
}

// PosterResolver finds a poster for one movie.
type PosterResolver interface {
	Resolve(ctx context.Context, c poster.Candidate) failure.Result[poster.Poster]
}

// Service implements the API dependencies for the recommender.
type Service struct {
	mu sync.RWMutex

	// Core components
	catalog  *catalog.Catalog
	engine   Recommender
	resolver PosterResolver
	cache    *PosterCache
	pool     *workerpool.Pool

	// Configuration
	workerCount  int
	placeholder  string
	breakerState func() string

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithCatalog sets the catalog served by the service.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithEngine sets the ranking engine.
func WithEngine(e Recommender) Option {
	return func(s *Service) {
		if e != nil {
			s.engine = e
		}
	}
}

// WithResolver sets the poster resolver.
func WithResolver(r PosterResolver) Option {
	return func(s *Service) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithPosterCache reports cache statistics from c.
func WithPosterCache(c *PosterCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithWorkerCount sets how many posters are resolved concurrently.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithPlaceholder sets the image used when no poster is found.
func WithPlaceholder(url string) Option {
	return func(s *Service) {
		if url != "" {
			s.placeholder = url
		}
	}
}

// WithBreakerState reports the metadata client's circuit state in stats.
func WithBreakerState(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.breakerState = fn
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. Engine, resolver and catalog are required
// before Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: defaultWorkerCount,
		placeholder: DefaultPlaceholder,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates the wiring and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.catalog == nil || s.engine == nil || s.resolver == nil {
		return fmt.Errorf("service needs a catalog, an engine and a resolver")
	}

	s.pool = workerpool.NewPool(s.workerCount, workerpool.WithLogger(s.logger.Named("pool")))
	s.pool.Start(ctx)
	metrics.UpdateCatalogSize(s.catalog.Len())

	s.started = true
	s.logger.Info(ctx, "recommender service started",
		logger.Int("movies", s.catalog.Len()),
		logger.Int("workers", s.workerCount),
		logger.Int("topN", s.engine.TopN()),
	)
	return nil
}

// Stop drains the worker pool.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping recommender service...")
	err := s.pool.Shutdown(ctx)
	s.started = false
	s.logger.Info(ctx, "recommender service stopped")
	return err
}

func (s *Service) running() (*workerpool.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.pool, nil
}

// Titles lists every catalog title in catalog order.
func (s *Service) Titles() []string {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Titles()
}

// Recommend returns the top neighbours of title with their posters.
//
// An unknown title yields an empty result carrying a warning together with
// a not-found error. Poster failures never fail the call: the affected item
// gets the placeholder and a warning is added.
func (s *Service) Recommend(ctx context.Context, title string) (model.Recommendations, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRecommendationLatency(float64(time.Since(start).Milliseconds()))
	}()

	out := model.Recommendations{
		RequestID: uuid.NewString(),
		Query:     title,
		Items:     []model.Recommendation{},
	}

	pool, err := s.running()
	if err != nil {
		return out, err
	}

	neighbors, err := s.engine.Neighbors(ctx, title)
	if err != nil {
		if failure.KindOf(err) == failure.KindNotFound {
			metrics.RecordRecommendation("not_found")
			s.logger.Warn(ctx, "title not in catalog",
				logger.String("title", title),
				logger.String("requestID", out.RequestID),
			)
			out.Warnings = append(out.Warnings, fmt.Sprintf("%q is not in the catalog", title))
			return out, err
		}
		metrics.RecordRecommendation("error")
		s.logger.Warn(ctx, "recommendation failed",
			logger.String("title", title),
			logger.String("requestID", out.RequestID),
			logger.Error(err),
		)
		out.Warnings = append(out.Warnings, fmt.Sprintf("recommendations for %q unavailable: %v", title, err))
		return out, err
	}

	// jobs write only to resolved; items and warnings belong to this goroutine
	resolved := make([]posterOutcome, len(neighbors))
	jobs := make([]workerpool.Job, len(neighbors))
	for i, n := range neighbors {
		jobs[i] = func(ctx context.Context) error {
			r := &resolved[i]
			r.url, r.source, r.warning = s.poster(ctx, candidateOf(n.Movie))
			return nil
		}
	}
	errs := pool.Run(ctx, jobs)

	items := make([]model.Recommendation, len(neighbors))
	warnings := make([]string, len(neighbors))
	for i, n := range neighbors {
		items[i] = model.Recommendation{
			ID:    n.Movie.ID,
			Title: n.Movie.Title,
			Year:  model.YearOf(n.Movie.Year),
			Score: n.Score,
		}
		if errs[i] != nil {
			// the job never completed: panic, cancellation or shutdown
			items[i].Poster = s.placeholder
			items[i].PosterSource = model.SourcePlaceholder
			warnings[i] = fmt.Sprintf("poster for %q unavailable: %v", n.Movie.Title, errs[i])
			metrics.RecordPosterResolution(model.SourcePlaceholder)
			continue
		}
		items[i].Poster = resolved[i].url
		items[i].PosterSource = resolved[i].source
		warnings[i] = resolved[i].warning
	}

	out.Items = items
	for _, w := range warnings {
		if w != "" {
			out.Warnings = append(out.Warnings, w)
		}
	}

	metrics.RecordRecommendation("ok")
	s.logger.Debug(ctx, "recommendations served",
		logger.String("title", title),
		logger.String("requestID", out.RequestID),
		logger.Int("items", len(items)),
		logger.Int("warnings", len(out.Warnings)),
	)
	return out, nil
}

// ResolvePoster resolves a single poster outside a recommendation.
func (s *Service) ResolvePoster(ctx context.Context, c poster.Candidate) model.PosterAnswer {
	url, source, warning := s.poster(ctx, c)
	return model.PosterAnswer{
		ID:      c.ID,
		Title:   c.Title,
		Year:    model.YearOf(c.Year),
		Poster:  url,
		Source:  source,
		Warning: warning,
	}
}

// poster resolves c and degrades to the placeholder. The warning is empty
// unless a lookup failed.
func (s *Service) poster(ctx context.Context, c poster.Candidate) (url, source, warning string) {
	if s.resolver == nil {
		return s.placeholder, model.SourcePlaceholder, fmt.Sprintf("poster for %q unavailable: no resolver configured", c.Title)
	}
	res := s.resolver.Resolve(ctx, c)
	p, err := res.Unpack()
	switch {
	case err != nil:
		url, source = s.placeholder, model.SourcePlaceholder
		warning = fmt.Sprintf("poster for %q unavailable (%s): %v", c.Title, res.Kind(), err)
	case !p.Found():
		url, source = s.placeholder, model.SourcePlaceholder
	default:
		url, source = p.URL, p.Tier.String()
	}
	metrics.RecordPosterResolution(source)
	return url, source, warning
}

type posterOutcome struct {
	url, source, warning string
}

func candidateOf(m catalog.Movie) poster.Candidate {
	return poster.Candidate{ID: m.ID, Title: m.Title, Year: m.Year}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats(ctx context.Context) model.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := model.Stats{
		Workers:      s.workerCount,
		CacheDriver:  "none",
		BreakerState: "closed",
	}
	if s.catalog != nil {
		stats.CatalogSize = s.catalog.Len()
	}
	if s.engine != nil {
		stats.TopN = s.engine.TopN()
	}
	if s.breakerState != nil {
		stats.BreakerState = s.breakerState()
	}
	if s.cache != nil {
		stats.CacheDriver = s.cache.Driver()
		stats.CachedPosters = s.cache.Size(ctx)
	}
	return stats
}
