package worker

import (
	"github.com/okian/marquee/pkg/logger"
)

type settings struct {
	logger logger.Logger
}

// Option applies a configuration option to the Pool.
type Option func(*settings)

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
