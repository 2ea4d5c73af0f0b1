// Package catalog holds the read-only movie catalog and its similarity matrix.
package catalog

import (
	"github.com/okian/marquee/internal/domain/failure"
)

// Movie is one catalog row.
type Movie struct {
	ID    string // external metadata id, e.g. "tt0111161"
	Title string
	Year  *int // nil when unknown
}

// Catalog is an ordered, read-only list of movies indexed by title.
//
// Titles are expected to be unique. When they are not, the first row with
// a given title wins every lookup.
type Catalog struct {
	movies  []Movie
	byTitle map[string]int
}

// New builds a catalog over movies. The slice is copied.
func New(movies []Movie) *Catalog {
	c := &Catalog{
		movies:  make([]Movie, len(movies)),
		byTitle: make(map[string]int, len(movies)),
	}
	copy(c.movies, movies)
	for i, m := range c.movies {
		if _, dup := c.byTitle[m.Title]; !dup {
			c.byTitle[m.Title] = i
		}
	}
	return c
}

// Len returns the number of movies.
func (c *Catalog) Len() int { return len(c.movies) }

// At returns the movie at index i.
func (c *Catalog) At(i int) Movie { return c.movies[i] }

// IndexOf returns the index of the first movie titled title.
func (c *Catalog) IndexOf(title string) (int, error) {
	i, ok := c.byTitle[title]
	if !ok {
		return -1, failure.Newf(failure.KindNotFound, "movie %q is not in the catalog", title)
	}
	return i, nil
}

// Titles returns every title in catalog order, duplicates included.
func (c *Catalog) Titles() []string {
	out := make([]string, len(c.movies))
	for i, m := range c.movies {
		out[i] = m.Title
	}
	return out
}
