// Package datasource loads the catalog table and similarity matrix from disk.
package datasource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/okian/marquee/internal/domain/catalog"
	"github.com/okian/marquee/internal/domain/failure"
)

// Catalog column names.
const (
	ColumnID    = "movie_id"
	ColumnTitle = "title"
	ColumnYear  = "year"
)

// LoadCatalog reads a CSV catalog with a header row. movie_id and title are
// required; year is optional and blank, "N/A" or unparsable values read as
// unknown.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, failure.Wrap(failure.KindCatalogLoad, err, "open catalog")
	}
	defer func() { _ = f.Close() }()
	return ReadCatalog(f)
}

// ReadCatalog parses a CSV catalog from r.
func ReadCatalog(r io.Reader) (*catalog.Catalog, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, failure.New(failure.KindSchema, "catalog has no header row")
	}
	if err != nil {
		return nil, failure.Wrap(failure.KindCatalogLoad, err, "read catalog header")
	}

	cols := columnIndex(header)
	var missing []string
	for _, name := range []string{ColumnID, ColumnTitle} {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, failure.Newf(failure.KindSchema, "catalog is missing required columns: %s", strings.Join(missing, ", "))
	}

	idCol, titleCol := cols[ColumnID], cols[ColumnTitle]
	yearCol, hasYear := cols[ColumnYear]

	var movies []catalog.Movie
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, failure.Wrap(failure.KindCatalogLoad, err, "read catalog row")
		}
		m := catalog.Movie{
			ID:    strings.TrimSpace(rec[idCol]),
			Title: strings.TrimSpace(rec[titleCol]),
		}
		if hasYear {
			m.Year = parseYear(rec[yearCol])
		}
		movies = append(movies, m)
	}
	return catalog.New(movies), nil
}

func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}

// parseYear accepts integers and whole floats such as "1999.0".
// Anything else, including floats outside the int32 range, is unknown.
func parseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "N/A") {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return nil
	}
	// out of int32 range reads as unknown rather than overflowing
	if f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	n := int(f)
	return &n
}

// Load reads both artifacts and checks that they agree in shape.
func Load(catalogPath, similarityPath string) (*catalog.Catalog, catalog.Matrix, error) {
	c, err := LoadCatalog(catalogPath)
	if err != nil {
		return nil, nil, err
	}
	m, err := LoadSimilarity(similarityPath)
	if err != nil {
		return nil, nil, err
	}
	if err := m.Validate(c.Len()); err != nil {
		return nil, nil, fmt.Errorf("%s vs %s: %w", catalogPath, similarityPath, err)
	}
	return c, m, nil
}
