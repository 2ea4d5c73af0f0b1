package repository_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/marquee/internal/adapters/repository"
	"github.com/okian/marquee/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type factory func(t *testing.T, opts ...repository.Option) repository.Store

func stores() map[string]factory {
	return map[string]factory{
		"memory": func(_ *testing.T, opts ...repository.Option) repository.Store {
			return repository.NewMemoryStore(opts...)
		},
		"sqlite": func(t *testing.T, opts ...repository.Option) repository.Store {
			s, err := repository.OpenSQLite(filepath.Join(t.TempDir(), "posters.db"), opts...)
			if err != nil {
				t.Fatalf("open sqlite: %v", err)
			}
			return s
		},
	}
}

func TestStores(t *testing.T) {
	ctx := context.Background()

	for name, open := range stores() {
		Convey(fmt.Sprintf("Given an empty %s store", name), t, func() {
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
			s := open(t, repository.WithTTL(time.Hour), repository.WithClock(clock.Now))
			defer func() { _ = s.Close() }()

			Convey("When reading an unknown key", func() {
				_, err := s.Get(ctx, "tt0")

				Convey("Then it is not found", func() {
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When storing a poster", func() {
				err := s.Put(ctx, repository.Entry{Key: "tt1", URL: "https://img/1.jpg", Tier: "id"})
				So(err, ShouldBeNil)

				Convey("Then it can be read back", func() {
					e, err := s.Get(ctx, "tt1")
					So(err, ShouldBeNil)
					So(e.URL, ShouldEqual, "https://img/1.jpg")
					So(e.Tier, ShouldEqual, "id")
					n, err := s.Count(ctx)
					So(err, ShouldBeNil)
					So(n, ShouldEqual, 1)
				})

				Convey("Then storing it again replaces the URL", func() {
					So(s.Put(ctx, repository.Entry{Key: "tt1", URL: "https://img/2.jpg", Tier: "title"}), ShouldBeNil)
					e, err := s.Get(ctx, "tt1")
					So(err, ShouldBeNil)
					So(e.URL, ShouldEqual, "https://img/2.jpg")
					n, _ := s.Count(ctx)
					So(n, ShouldEqual, 1)
				})

				Convey("Then it expires after the TTL", func() {
					clock.Advance(2 * time.Hour)
					_, err := s.Get(ctx, "tt1")
					So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				})
			})

			Convey("When storing an entry without a URL", func() {
				err := s.Put(ctx, repository.Entry{Key: "tt1"})

				Convey("Then it is rejected", func() {
					So(errors.Is(err, repository.ErrInvalidEntry), ShouldBeTrue)
				})
			})
		})
	}
}

func TestMemoryStoreEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a memory store holding two entries", t, func() {
		s := repository.NewMemoryStore(repository.WithCapacity(2))
		So(s.Put(ctx, repository.Entry{Key: "a", URL: "1"}), ShouldBeNil)
		So(s.Put(ctx, repository.Entry{Key: "b", URL: "2"}), ShouldBeNil)

		Convey("When a is read and c is added", func() {
			_, err := s.Get(ctx, "a")
			So(err, ShouldBeNil)
			So(s.Put(ctx, repository.Entry{Key: "c", URL: "3"}), ShouldBeNil)

			Convey("Then the least recently used entry b is evicted", func() {
				_, err := s.Get(ctx, "b")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
				_, err = s.Get(ctx, "a")
				So(err, ShouldBeNil)
				n, _ := s.Count(ctx)
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then further use fails", func() {
				_, err := s.Get(ctx, "a")
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestSQLStorePersists(t *testing.T) {
	ctx := context.Background()

	Convey("Given a poster stored in a sqlite file", t, func() {
		path := filepath.Join(t.TempDir(), "posters.db")
		s, err := repository.OpenSQLite(path)
		So(err, ShouldBeNil)
		So(s.Put(ctx, repository.Entry{Key: "heat|1995", URL: "https://img/heat.jpg", Tier: "title_year"}), ShouldBeNil)
		So(s.Close(), ShouldBeNil)

		Convey("When the database is reopened", func() {
			reopened, err := repository.OpenSQLite(path)
			So(err, ShouldBeNil)
			defer func() { _ = reopened.Close() }()

			Convey("Then the poster is still there", func() {
				e, err := reopened.Get(ctx, "heat|1995")
				So(err, ShouldBeNil)
				So(e.URL, ShouldEqual, "https://img/heat.jpg")
			})
		})
	})
}
