package repository

import (
	"time"

	"github.com/okian/marquee/pkg/logger"
)

// Default store configuration constants.
const (
	defaultCapacity = 10000
	defaultTTL      = 24 * time.Hour
)

type settings struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
	logger   logger.Logger
}

func newSettings(opts []Option) settings {
	s := settings{
		capacity: defaultCapacity,
		ttl:      defaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("poster-cache")
	}
	return s
}

// Option applies a configuration option to a Store.
type Option func(*settings)

// WithCapacity bounds the in-memory store. Ignored by the SQL store.
func WithCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.capacity = n
		}
	}
}

// WithTTL sets how long an entry stays valid. Zero keeps entries forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *settings) {
		if ttl >= 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
