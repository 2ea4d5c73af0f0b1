package poster

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/pkg/logger"
	"github.com/okian/marquee/pkg/metrics"
)

// Default resolver configuration constants.
const (
	defaultTierTimeout = 10 * time.Second
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTierTimeout bounds every individual tier lookup.
func WithTierTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.tierTimeout = d
		}
	}
}

// WithCache consults c before the metadata API and stores successful lookups in it.
func WithCache(c Cache) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
		}
	}
}

// WithLogger sets a custom logger for the resolver.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// Resolver walks the lookup tiers against a Metadata source.
type Resolver struct {
	api         Metadata
	cache       Cache
	tierTimeout time.Duration
	logger      logger.Logger
}

// NewResolver creates a resolver over api.
func NewResolver(api Metadata, opts ...Option) *Resolver {
	r := &Resolver{
		api:         api,
		tierTimeout: defaultTierTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("poster")
	}
	return r
}

type step struct {
	tier  Tier
	query Query
}

func (r *Resolver) plan(c Candidate) []step {
	steps := make([]step, 0, 3)
	// an empty id can never match, so tier 1 is skipped outright
	if c.ID != "" {
		steps = append(steps, step{tier: TierID, query: Query{ID: c.ID}})
	}
	steps = append(steps,
		step{tier: TierTitleYear, query: Query{Title: c.Title, Year: c.Year}},
		step{tier: TierTitle, query: Query{Title: c.Title}},
	)
	return steps
}

// Resolve returns the first usable poster for c.
//
// Success with Tier == TierNone means every tier answered without a poster.
// Any lookup error stops the chain at once and is returned as a Failure;
// later tiers are not attempted.
func (r *Resolver) Resolve(ctx context.Context, c Candidate) failure.Result[Poster] {
	start := time.Now()
	defer func() {
		metrics.RecordPosterLatency(float64(time.Since(start).Milliseconds()))
	}()

	key := c.Key()
	if r.cache != nil {
		if url, ok := r.cache.Lookup(ctx, key); ok {
			return failure.Success(Poster{URL: url, Tier: TierCache})
		}
	}

	for _, s := range r.plan(c) {
		rec, err := r.lookup(ctx, s.query)
		if err != nil {
			metrics.RecordPosterLookup(s.tier.String(), "error")
			r.logger.Warn(ctx, "poster lookup failed",
				logger.String("tier", s.tier.String()),
				logger.String("title", c.Title),
				logger.String("id", c.ID),
				logger.Error(err),
			)
			fe := classify(err)
			return failure.Failure[Poster](fe.Kind, fmt.Sprintf("poster for %q, tier %s: %s", c.Title, s.tier, fe.Detail()))
		}
		if !rec.Usable() {
			metrics.RecordPosterLookup(s.tier.String(), "miss")
			continue
		}

		metrics.RecordPosterLookup(s.tier.String(), "hit")
		if r.cache != nil {
			r.cache.Remember(ctx, key, rec.URL(), s.tier)
		}
		return failure.Success(Poster{URL: rec.URL(), Tier: s.tier})
	}

	r.logger.Debug(ctx, "no poster in any tier", logger.String("title", c.Title), logger.String("id", c.ID))
	return failure.Success(Poster{})
}

func (r *Resolver) lookup(ctx context.Context, q Query) (Record, error) {
	tierCtx, cancel := context.WithTimeout(ctx, r.tierTimeout)
	defer cancel()
	return r.api.Lookup(tierCtx, q)
}

// classify makes sure every lookup error carries a failure kind; timeouts and
// unclassified transport errors count as network failures.
func classify(err error) *failure.Error {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Kind != failure.KindUnknown {
		return fe
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return failure.Wrap(failure.KindNetwork, err, "lookup timed out")
	}
	return failure.Wrap(failure.KindNetwork, err, "lookup failed")
}
