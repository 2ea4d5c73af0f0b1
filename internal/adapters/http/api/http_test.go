package api_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/okian/marquee/internal/adapters/http/api"
	service "github.com/okian/marquee/internal/app"
	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/model"
	"github.com/okian/marquee/internal/domain/poster"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	titles    []string
	recs      model.Recommendations
	recErr    error
	gotTitle  string
	gotPoster poster.Candidate
}

func (m *mockDependencies) Titles() []string { return m.titles }

func (m *mockDependencies) Recommend(_ context.Context, title string) (model.Recommendations, error) {
	m.gotTitle = title
	return m.recs, m.recErr
}

func (m *mockDependencies) ResolvePoster(_ context.Context, c poster.Candidate) model.PosterAnswer {
	m.gotPoster = c
	return model.PosterAnswer{ID: c.ID, Title: c.Title, Year: model.YearOf(c.Year), Poster: "https://img/p.jpg", Source: "title_year"}
}

func (m *mockDependencies) GetStats(context.Context) model.Stats {
	return model.Stats{CatalogSize: len(m.titles), TopN: 5, Workers: 5, CacheDriver: "memory", BreakerState: "closed"}
}

func serve(deps api.Dependencies, method, target string, opts ...api.RouterOption) *httptest.ResponseRecorder {
	r := api.NewRouter(opts...)
	api.NewServer(deps).Register(r)
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		y := 2001
		deps := &mockDependencies{
			titles: []string{"A", "B", "C"},
			recs: model.Recommendations{
				RequestID: "req-1",
				Query:     "A",
				Items: []model.Recommendation{
					{ID: "tt2", Title: "B", Poster: "https://img/b.jpg", Year: model.YearOf(&y), Score: 0.9, PosterSource: "id"},
					{ID: "tt3", Title: "C", Poster: "https://img/ph.png", Year: model.YearOf(nil), Score: 0.1, PosterSource: "placeholder"},
				},
			},
		}

		Convey("When calling the health endpoint", func() {
			w := serve(deps, http.MethodGet, "/healthz")

			Convey("Then it reports ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"ok"`)
			})
		})

		Convey("When calling the metrics endpoint", func() {
			_ = serve(deps, http.MethodGet, "/healthz")
			w := serve(deps, http.MethodGet, "/metrics")

			Convey("Then the prometheus registry is exposed", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "marquee_recommender_http_requests_total")
			})
		})

		Convey("When listing movies", func() {
			w := serve(deps, http.MethodGet, "/movies")

			Convey("Then all titles come back in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Titles []string `json:"titles"`
					Count  int      `json:"count"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Titles, ShouldResemble, []string{"A", "B", "C"})
				So(body.Count, ShouldEqual, 3)
			})
		})

		Convey("When asking for recommendations", func() {
			w := serve(deps, http.MethodGet, "/recommendations?title=A")

			Convey("Then the items are encoded with N/A for an unknown year", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotTitle, ShouldEqual, "A")
				So(w.Body.String(), ShouldContainSubstring, `"year":2001`)
				So(w.Body.String(), ShouldContainSubstring, `"year":"N/A"`)
				var res model.Recommendations
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.Items, ShouldHaveLength, 2)
				So(res.Items[0].Title, ShouldEqual, "B")
			})
		})

		Convey("When the title is missing", func() {
			w := serve(deps, http.MethodGet, "/recommendations")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the title is not in the catalog", func() {
			deps.recs = model.Recommendations{Query: "Z", Items: []model.Recommendation{}, Warnings: []string{`"Z" is not in the catalog`}}
			deps.recErr = failure.New(failure.KindNotFound, "movie \"Z\" is not in the catalog")
			w := serve(deps, http.MethodGet, "/recommendations?title=Z")

			Convey("Then it answers 404 with the warning", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(w.Body.String(), ShouldContainSubstring, "not in the catalog")
				So(w.Body.String(), ShouldContainSubstring, `"items":[]`)
			})
		})

		Convey("When the service is not started", func() {
			deps.recErr = service.ErrNotStarted
			w := serve(deps, http.MethodGet, "/recommendations?title=A")

			Convey("Then it answers 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When resolving a poster", func() {
			w := serve(deps, http.MethodGet, "/posters?id=tt1&title=Heat&year=1995")

			Convey("Then the query is passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotPoster.ID, ShouldEqual, "tt1")
				So(deps.gotPoster.Title, ShouldEqual, "Heat")
				So(*deps.gotPoster.Year, ShouldEqual, 1995)
				So(w.Body.String(), ShouldContainSubstring, "title_year")
			})
		})

		Convey("When the poster year is not a number", func() {
			w := serve(deps, http.MethodGet, "/posters?title=Heat&year=soon")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When reading stats", func() {
			w := serve(deps, http.MethodGet, "/stats")

			Convey("Then the stats are encoded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"catalog_size":3`)
			})
		})

		Convey("When calling an unknown route", func() {
			w := serve(deps, http.MethodGet, "/unknown")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRouterMiddleware(t *testing.T) {
	Convey("Given a router limited to one request per minute", t, func() {
		deps := &mockDependencies{titles: []string{"A"}}
		r := api.NewRouter(api.WithRateLimit(1, time.Minute))
		api.NewServer(deps).Register(r)

		Convey("When the same client calls twice", func() {
			first := httptest.NewRecorder()
			r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/movies", nil))
			second := httptest.NewRecorder()
			r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/movies", nil))

			Convey("Then the second call is rejected", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(second.Code, ShouldEqual, http.StatusTooManyRequests)
			})
		})
	})

	Convey("Given a router allowing one origin", t, func() {
		deps := &mockDependencies{}
		r := api.NewRouter(api.WithCORSOrigins([]string{"https://films.example.com"}))
		api.NewServer(deps).Register(r)

		Convey("When that origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", "https://films.example.com")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then the CORS header echoes it", func() {
				So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://films.example.com")
			})
		})

		Convey("When another origin calls", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			Convey("Then no CORS header is set", func() {
				So(strings.TrimSpace(w.Header().Get("Access-Control-Allow-Origin")), ShouldBeEmpty)
			})
		})
	})
}
