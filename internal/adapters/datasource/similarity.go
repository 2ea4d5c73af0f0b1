package datasource

import (
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/okian/marquee/internal/domain/catalog"
	"github.com/okian/marquee/internal/domain/failure"
)

// LoadSimilarity reads a square similarity matrix stored as a JSON array of
// rows, row i and column j both indexing catalog row order.
func LoadSimilarity(path string) (catalog.Matrix, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from operator config
	if err != nil {
		return nil, failure.Wrap(failure.KindCatalogLoad, err, "open similarity matrix")
	}
	defer func() { _ = f.Close() }()
	return ReadSimilarity(f)
}

// ReadSimilarity decodes a similarity matrix from r.
func ReadSimilarity(r io.Reader) (catalog.Matrix, error) {
	var m catalog.Matrix
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, failure.Wrap(failure.KindCatalogLoad, err, "decode similarity matrix")
	}
	return m, nil
}
