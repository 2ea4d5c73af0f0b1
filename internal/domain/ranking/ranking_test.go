package ranking_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/okian/marquee/internal/domain/catalog"
	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

func year(y int) *int { return &y }

func titles(ns []ranking.Neighbor) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Movie.Title
	}
	return out
}

func TestEngine_Neighbors(t *testing.T) {
	ctx := context.Background()

	Convey("Given the three-movie scenario", t, func() {
		c := catalog.New([]catalog.Movie{
			{ID: "tt1", Title: "A", Year: year(2000)},
			{ID: "tt2", Title: "B", Year: year(2001)},
			{ID: "tt3", Title: "C", Year: year(2002)},
		})
		m := catalog.Matrix{
			{1.0, 0.9, 0.1},
			{0.9, 1.0, 0.3},
			{0.1, 0.3, 1.0},
		}
		engine, err := ranking.NewEngine(c, m)
		So(err, ShouldBeNil)

		Convey("When recommending for A", func() {
			got, err := engine.Neighbors(ctx, "A")

			Convey("Then B and C are returned in score order", func() {
				So(err, ShouldBeNil)
				So(titles(got), ShouldResemble, []string{"B", "C"})
				So(got[0].Movie.ID, ShouldEqual, "tt2")
				So(*got[0].Movie.Year, ShouldEqual, 2001)
				So(got[0].Score, ShouldEqual, 0.9)
			})
		})

		Convey("When the title is unknown", func() {
			got, err := engine.Neighbors(ctx, "Z")

			Convey("Then a not-found error is returned", func() {
				So(got, ShouldBeNil)
				So(errors.Is(err, failure.ErrNotFound), ShouldBeTrue)
			})
		})
	})

	Convey("Given a large catalog", t, func() {
		const n = 20
		movies := make([]catalog.Movie, n)
		m := make(catalog.Matrix, n)
		for i := range movies {
			movies[i] = catalog.Movie{ID: fmt.Sprintf("tt%d", i), Title: fmt.Sprintf("M%02d", i)}
			m[i] = make([]float64, n)
			for j := range m[i] {
				if i == j {
					m[i][j] = 1
				} else {
					m[i][j] = float64(j) / 100
				}
			}
		}
		engine, err := ranking.NewEngine(catalog.New(movies), m)
		So(err, ShouldBeNil)

		Convey("When recommending for every title", func() {
			Convey("Then at most five results come back and never the query", func() {
				for _, mv := range movies {
					got, err := engine.Neighbors(ctx, mv.Title)
					So(err, ShouldBeNil)
					So(len(got), ShouldBeLessThanOrEqualTo, 5)
					So(titles(got), ShouldNotContain, mv.Title)
				}
			})
		})

		Convey("When the engine is configured for three results", func() {
			small, err := ranking.NewEngine(catalog.New(movies), m, ranking.WithTopN(3))
			So(err, ShouldBeNil)
			got, err := small.Neighbors(ctx, "M00")

			Convey("Then only three are returned", func() {
				So(err, ShouldBeNil)
				So(titles(got), ShouldResemble, []string{"M19", "M18", "M17"})
			})
		})
	})

	Convey("Given equal similarity scores", t, func() {
		c := catalog.New([]catalog.Movie{
			{Title: "Q"}, {Title: "W"}, {Title: "X"}, {Title: "Y"}, {Title: "Z"},
		})
		m := catalog.Matrix{
			{1, 0.5, 0.7, 0.5, 0.5},
			{0.5, 1, 0, 0, 0},
			{0.7, 0, 1, 0, 0},
			{0.5, 0, 0, 1, 0},
			{0.5, 0, 0, 0, 1},
		}
		engine, err := ranking.NewEngine(c, m)
		So(err, ShouldBeNil)

		Convey("When recommending for Q", func() {
			got, err := engine.Neighbors(ctx, "Q")

			Convey("Then ties keep catalog order", func() {
				So(err, ShouldBeNil)
				So(titles(got), ShouldResemble, []string{"X", "W", "Y", "Z"})
			})
		})
	})

	Convey("Given a candidate tied with self-similarity", t, func() {
		c := catalog.New([]catalog.Movie{{Title: "P"}, {Title: "Q"}, {Title: "R"}})
		m := catalog.Matrix{
			{1, 1, 0},
			{1, 1, 0.2},
			{0, 0.2, 1},
		}
		engine, err := ranking.NewEngine(c, m)
		So(err, ShouldBeNil)

		Convey("When recommending for Q", func() {
			got, err := engine.Neighbors(ctx, "Q")

			Convey("Then the query is excluded even when it is not first", func() {
				So(err, ShouldBeNil)
				So(titles(got), ShouldResemble, []string{"P", "R"})
			})
		})
	})

	Convey("Given a single-movie catalog", t, func() {
		engine, err := ranking.NewEngine(catalog.New([]catalog.Movie{{Title: "Solo"}}), catalog.Matrix{{1}})
		So(err, ShouldBeNil)

		Convey("When recommending for it", func() {
			got, err := engine.Neighbors(ctx, "Solo")

			Convey("Then the result is empty without error", func() {
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})
		})
	})

	Convey("Given an empty catalog", t, func() {
		engine, err := ranking.NewEngine(catalog.New(nil), catalog.Matrix{})
		So(err, ShouldBeNil)

		Convey("Then every lookup fails with not-found", func() {
			_, err := engine.Neighbors(ctx, "anything")
			So(errors.Is(err, failure.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a matrix that does not match the catalog", t, func() {
		_, err := ranking.NewEngine(catalog.New([]catalog.Movie{{Title: "A"}, {Title: "B"}}), catalog.Matrix{{1}})

		Convey("Then construction fails with a schema error", func() {
			So(errors.Is(err, failure.ErrSchema), ShouldBeTrue)
		})
	})
}
