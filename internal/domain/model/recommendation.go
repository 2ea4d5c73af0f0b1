// Package model contains domain models passed between layers.
package model

import (
	"bytes"
	"strconv"

	"github.com/goccy/go-json"
)

// notAvailable is how a missing year is written on the wire.
const notAvailable = "N/A"

// Year is a release year that may be unknown.
// It serializes as a JSON number, or "N/A" when unknown.
type Year struct {
	Value int
	Known bool
}

// YearOf converts an optional year.
func YearOf(y *int) Year {
	if y == nil {
		return Year{}
	}
	return Year{Value: *y, Known: true}
}

func (y Year) String() string {
	if !y.Known {
		return notAvailable
	}
	return strconv.Itoa(y.Value)
}

// MarshalJSON implements json.Marshaler.
func (y Year) MarshalJSON() ([]byte, error) {
	if !y.Known {
		return []byte(`"` + notAvailable + `"`), nil
	}
	return []byte(strconv.Itoa(y.Value)), nil
}

// UnmarshalJSON implements json.Unmarshaler. Any string or null reads as unknown.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' || bytes.Equal(data, []byte("null")) {
		*y = Year{}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year{Value: n, Known: true}
	return nil
}

// Poster sources reported alongside a recommendation.
const (
	SourcePlaceholder = "placeholder"
)

// Recommendation is one movie returned to a client.
type Recommendation struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Poster       string  `json:"poster"`
	Year         Year    `json:"year"`
	Score        float64 `json:"score"`
	PosterSource string  `json:"poster_source"`
}

// Recommendations is the answer to one recommendation request.
// Warnings describe poster lookups that fell back to the placeholder
// and queries that matched nothing.
type Recommendations struct {
	RequestID string           `json:"request_id"`
	Query     string           `json:"query"`
	Items     []Recommendation `json:"items"`
	Warnings  []string         `json:"warnings,omitempty"`
}

// PosterAnswer is the answer to a single poster lookup.
type PosterAnswer struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title"`
	Year    Year   `json:"year"`
	Poster  string `json:"poster"`
	Source  string `json:"source"`
	Warning string `json:"warning,omitempty"`
}

// Stats summarizes the service for operators.
type Stats struct {
	CatalogSize   int    `json:"catalog_size"`
	TopN          int    `json:"top_n"`
	Workers       int    `json:"workers"`
	CacheDriver   string `json:"cache_driver"`
	CachedPosters int64  `json:"cached_posters"`
	BreakerState  string `json:"breaker_state"`
}
