// Package poster resolves a poster image URL for a movie through a chain of
// progressively looser metadata lookups.
package poster

import (
	"context"
	"strconv"
	"strings"
)

// NotAvailable is the metadata API's sentinel for an absent field.
const NotAvailable = "N/A"

// Tier identifies which lookup produced a poster.
type Tier int

// Lookup tiers, strictest first.
const (
	TierNone Tier = iota
	TierID
	TierTitleYear
	TierTitle
	TierCache
)

func (t Tier) String() string {
	switch t {
	case TierID:
		return "id"
	case TierTitleYear:
		return "title_year"
	case TierTitle:
		return "title"
	case TierCache:
		return "cache"
	default:
		return "none"
	}
}

// Candidate is the movie a poster is wanted for.
type Candidate struct {
	ID    string
	Title string
	Year  *int
}

// Key identifies the candidate for caching.
func (c Candidate) Key() string {
	if c.ID != "" {
		return c.ID
	}
	if c.Year != nil {
		return strings.ToLower(c.Title) + "|" + strconv.Itoa(*c.Year)
	}
	return strings.ToLower(c.Title)
}

// Query is a single metadata lookup. Exactly one of ID or Title is set.
type Query struct {
	ID    string
	Title string
	Year  *int
}

// Record is the part of a metadata response the resolver cares about.
type Record struct {
	Poster string
}

// URL is the poster field without surrounding whitespace.
func (r Record) URL() string { return strings.TrimSpace(r.Poster) }

// Usable reports whether the record carries a real poster URL.
func (r Record) Usable() bool {
	p := r.URL()
	return p != "" && p != NotAvailable
}

// Metadata looks a movie up in the external metadata API.
// Errors must be classified as network or malformed-response failures.
type Metadata interface {
	Lookup(ctx context.Context, q Query) (Record, error)
}

// Cache remembers resolved posters between requests.
type Cache interface {
	Lookup(ctx context.Context, key string) (string, bool)
	Remember(ctx context.Context, key, url string, tier Tier)
}

// Poster is a resolved poster. Tier is TierNone when nothing usable was found.
type Poster struct {
	URL  string
	Tier Tier
}

// Found reports whether a poster URL was resolved.
func (p Poster) Found() bool { return p.Tier != TierNone }
