package omdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/okian/marquee/internal/adapters/omdb"
	"github.com/okian/marquee/internal/domain/failure"
	"github.com/okian/marquee/internal/domain/poster"
	"github.com/okian/marquee/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type recorder struct {
	mu      sync.Mutex
	queries []url.Values
}

func (r *recorder) add(q url.Values) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, q)
}

func (r *recorder) last() url.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queries[len(r.queries)-1]
}

func server(rec *recorder, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func year(y int) *int { return &y }

func TestClient_Lookup(t *testing.T) {
	ctx := context.Background()

	Convey("Given an OMDb server that knows the movie", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusOK, `{"Title":"Heat","Year":"1995","imdbID":"tt0113277","Poster":"https://img/heat.jpg","Response":"True"}`)
		defer srv.Close()
		c := omdb.NewClient("secret", omdb.WithBaseURL(srv.URL))

		Convey("When looking up by id", func() {
			rec1, err := c.Lookup(ctx, poster.Query{ID: "tt0113277"})

			Convey("Then the poster is returned and the id is sent as i", func() {
				So(err, ShouldBeNil)
				So(rec1.Poster, ShouldEqual, "https://img/heat.jpg")
				So(rec.last().Get("i"), ShouldEqual, "tt0113277")
				So(rec.last().Get("apikey"), ShouldEqual, "secret")
				So(rec.last().Has("t"), ShouldBeFalse)
			})
		})

		Convey("When looking up by title and year", func() {
			_, err := c.Lookup(ctx, poster.Query{Title: "Heat", Year: year(1995)})

			Convey("Then t and y are sent", func() {
				So(err, ShouldBeNil)
				So(rec.last().Get("t"), ShouldEqual, "Heat")
				So(rec.last().Get("y"), ShouldEqual, "1995")
			})
		})

		Convey("When looking up by title only", func() {
			_, err := c.Lookup(ctx, poster.Query{Title: "Heat"})

			Convey("Then no year is sent", func() {
				So(err, ShouldBeNil)
				So(rec.last().Has("y"), ShouldBeFalse)
			})
		})
	})

	Convey("Given a server answering Response False", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusOK, `{"Response":"False","Error":"Movie not found!"}`)
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL))

		Convey("Then the lookup is a miss, not an error", func() {
			r, err := c.Lookup(ctx, poster.Query{Title: "Nope"})
			So(err, ShouldBeNil)
			So(r.Usable(), ShouldBeFalse)
		})
	})

	Convey("Given a server answering N/A", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusOK, `{"Title":"Old","Poster":"N/A","Response":"True"}`)
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL))

		Convey("Then the record is not usable", func() {
			r, err := c.Lookup(ctx, poster.Query{Title: "Old"})
			So(err, ShouldBeNil)
			So(r.Poster, ShouldEqual, poster.NotAvailable)
			So(r.Usable(), ShouldBeFalse)
		})
	})

	Convey("Given a server returning garbage", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusOK, `<html>oops</html>`)
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL))

		Convey("Then the error is a malformed response", func() {
			_, err := c.Lookup(ctx, poster.Query{Title: "X"})
			So(errors.Is(err, failure.ErrMalformedResponse), ShouldBeTrue)
		})
	})

	Convey("Given a server returning 500", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusInternalServerError, `{}`)
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL), omdb.WithBreaker(2, time.Minute))

		Convey("When it fails repeatedly", func() {
			_, err1 := c.Lookup(ctx, poster.Query{Title: "X"})
			_, err2 := c.Lookup(ctx, poster.Query{Title: "X"})
			_, err3 := c.Lookup(ctx, poster.Query{Title: "X"})

			Convey("Then failures are network errors and the breaker opens", func() {
				So(errors.Is(err1, failure.ErrNetwork), ShouldBeTrue)
				So(errors.Is(err2, failure.ErrNetwork), ShouldBeTrue)
				So(errors.Is(err3, failure.ErrNetwork), ShouldBeTrue)
				So(c.BreakerState(), ShouldEqual, "open")
				So(len(rec.queries), ShouldEqual, 2)
			})
		})
	})

	Convey("Given a slow server and callers that cancel", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
				return
			case <-time.After(200 * time.Millisecond):
			}
			_, _ = w.Write([]byte(`{"Response":"True","Poster":"https://img/slow.jpg"}`))
		}))
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL), omdb.WithBreaker(3, time.Minute))

		Convey("When three lookups are canceled mid-flight", func() {
			for i := 0; i < 3; i++ {
				cctx, cancel := context.WithCancel(ctx)
				time.AfterFunc(10*time.Millisecond, cancel)
				_, err := c.Lookup(cctx, poster.Query{ID: "tt1"})
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				cancel()
			}

			Convey("Then the breaker stays closed and the next lookup succeeds", func() {
				So(c.BreakerState(), ShouldEqual, "closed")
				rec, err := c.Lookup(ctx, poster.Query{ID: "tt1"})
				So(err, ShouldBeNil)
				So(rec.Poster, ShouldEqual, "https://img/slow.jpg")
			})
		})
	})

	Convey("Given a server slower than the caller's deadline", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL))

		Convey("Then the lookup fails as a network error carrying the deadline", func() {
			tctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()
			_, err := c.Lookup(tctx, poster.Query{ID: "tt1"})
			So(errors.Is(err, failure.ErrNetwork), ShouldBeTrue)
			So(errors.Is(err, context.DeadlineExceeded), ShouldBeTrue)
		})
	})

	Convey("Given a rate limited client and an expired context", t, func() {
		rec := &recorder{}
		srv := server(rec, http.StatusOK, `{"Response":"True","Poster":"p"}`)
		defer srv.Close()
		c := omdb.NewClient("k", omdb.WithBaseURL(srv.URL), omdb.WithRateLimit(0.001, 1))

		Convey("When the burst is used up", func() {
			_, err := c.Lookup(ctx, poster.Query{ID: "tt1"})
			So(err, ShouldBeNil)

			tctx, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
			defer cancel()
			_, err = c.Lookup(tctx, poster.Query{ID: "tt2"})

			Convey("Then the wait fails as a network error without calling the server", func() {
				So(errors.Is(err, failure.ErrNetwork), ShouldBeTrue)
				So(len(rec.queries), ShouldEqual, 1)
			})
		})
	})
}
