package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/marquee/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.TopN, convey.ShouldEqual, 5)
			convey.So(cfg.ResolverWorkers, convey.ShouldEqual, 5)
			convey.So(cfg.OMDb.Timeout, convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.OMDb.BaseURL, convey.ShouldEqual, "https://www.omdbapi.com/")
			convey.So(cfg.Cache.Driver, convey.ShouldEqual, "memory")
			convey.So(cfg.PlaceholderURL, convey.ShouldContainSubstring, "favicon-192x192.png")
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(config.Validate(cfg), convey.ShouldBeNil)
		})
	})

	convey.Convey("Given a sqlite cache without a path", t, func() {
		cfg := config.New()
		cfg.Cache.Driver = "sqlite"
		cfg.Cache.Path = ""

		convey.Convey("Then validation fails", func() {
			err := config.Validate(cfg)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an unknown cache driver", t, func() {
		cfg := config.New()
		cfg.Cache.Driver = "redis"

		convey.Convey("Then validation fails", func() {
			convey.So(config.Validate(cfg), convey.ShouldNotBeNil)
		})
	})
}
