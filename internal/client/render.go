package client

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/okian/marquee/internal/domain/model"
)

// MaxColumns is how many recommendations are laid out side by side.
const MaxColumns = 5

// Render writes up to MaxColumns recommendations as columns of
// title, year and poster URL, followed by any warnings.
func Render(w io.Writer, recs model.Recommendations) error {
	items := recs.Items
	if len(items) > MaxColumns {
		items = items[:MaxColumns]
	}

	if len(items) == 0 {
		if _, err := fmt.Fprintf(w, "no recommendations for %q\n", recs.Query); err != nil {
			return err
		}
		return renderWarnings(w, recs.Warnings)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []func(model.Recommendation) string{
		func(r model.Recommendation) string { return r.Title },
		func(r model.Recommendation) string { return r.Year.String() },
		func(r model.Recommendation) string { return r.Poster },
	}
	for _, row := range rows {
		for i, it := range items {
			if i > 0 {
				if _, err := io.WriteString(tw, "\t"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(tw, row(it)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(tw, "\n"); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return renderWarnings(w, recs.Warnings)
}

func renderWarnings(w io.Writer, warnings []string) error {
	for _, msg := range warnings {
		if _, err := fmt.Fprintf(w, "warning: %s\n", msg); err != nil {
			return err
		}
	}
	return nil
}
