// Package ranking picks the nearest neighbours of a movie from a precomputed
// similarity matrix.
package ranking

import (
	"context"
	"sort"

	"github.com/okian/marquee/internal/domain/catalog"
)

// Default ranking configuration constants.
const (
	defaultTopN = 5
)

// Neighbor is one ranked candidate.
type Neighbor struct {
	Index int
	Movie catalog.Movie
	Score float64
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTopN sets how many neighbours are returned.
func WithTopN(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.topN = n
		}
	}
}

// Engine ranks catalog entries by similarity to a query title.
type Engine struct {
	catalog *catalog.Catalog
	matrix  catalog.Matrix
	topN    int
}

// NewEngine validates that matrix matches catalog and returns an Engine
// reading both by reference.
func NewEngine(c *catalog.Catalog, m catalog.Matrix, opts ...Option) (*Engine, error) {
	if err := m.Validate(c.Len()); err != nil {
		return nil, err
	}
	e := &Engine{
		catalog: c,
		matrix:  m,
		topN:    defaultTopN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// TopN returns the configured result size.
func (e *Engine) TopN() int { return e.topN }

// Neighbors returns up to TopN movies most similar to title, best first.
// Equal scores keep catalog order. The query movie itself is never returned.
func (e *Engine) Neighbors(ctx context.Context, title string) ([]Neighbor, error) {
	idx, err := e.catalog.IndexOf(title)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := e.matrix.Row(idx)
	ranked := make([]Neighbor, len(row))
	for j, score := range row {
		ranked[j] = Neighbor{Index: j, Score: score}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Score > ranked[b].Score
	})

	// Self-similarity is normally the unique maximum, so this drops the head.
	// With a tie at the top the query may sit further down.
	out := make([]Neighbor, 0, e.topN)
	for _, n := range ranked {
		if n.Index == idx {
			continue
		}
		if len(out) == e.topN {
			break
		}
		n.Movie = e.catalog.At(n.Index)
		out = append(out, n)
	}
	return out, nil
}
