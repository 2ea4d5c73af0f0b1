package catalog

import (
	"github.com/okian/marquee/internal/domain/failure"
)

// Matrix is a square similarity matrix; entry (i, j) scores movie i against movie j.
type Matrix [][]float64

// Row returns the similarity row for movie i.
func (m Matrix) Row(i int) []float64 { return m[i] }

// Validate checks that m is n x n.
func (m Matrix) Validate(n int) error {
	if len(m) != n {
		return failure.Newf(failure.KindSchema, "similarity matrix has %d rows, catalog has %d movies", len(m), n)
	}
	for i, row := range m {
		if len(row) != n {
			return failure.Newf(failure.KindSchema, "similarity row %d has %d columns, want %d", i, len(row), n)
		}
	}
	return nil
}
