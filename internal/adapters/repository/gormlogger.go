package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/marquee/pkg/logger"
)

// GormLogger routes gorm's logging through the service logger.
type GormLogger struct {
	logger logger.Logger
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger wraps l.
func NewGormLogger(l logger.Logger) *GormLogger {
	return &GormLogger{logger: l}
}

// LogMode is a no-op; the service log level applies.
func (l *GormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface {
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Info(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Warn(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logger.Error(ctx, fmt.Sprintf(msg, data...))
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	// a cache miss is expected traffic
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		l.logger.Error(ctx, "gorm error",
			logger.Error(err),
			logger.String("sql", sql),
			logger.Any("rows", rows),
			logger.Duration("elapsed", elapsed),
		)
		return
	}

	l.logger.Debug(ctx, "gorm query",
		logger.String("sql", sql),
		logger.Any("rows", rows),
		logger.Duration("elapsed", elapsed),
	)
}
