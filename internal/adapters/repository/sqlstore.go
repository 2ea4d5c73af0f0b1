package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// posterRecord is the persisted form of an Entry.
type posterRecord struct {
	Key      string    `gorm:"column:cache_key;primaryKey;size:255"`
	URL      string    `gorm:"column:url;not null"`
	Tier     string    `gorm:"column:tier;size:16"`
	StoredAt time.Time `gorm:"column:stored_at;index"`
}

func (posterRecord) TableName() string { return "poster_cache" }

// SQLStore persists posters in SQLite through gorm so they survive restarts.
type SQLStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

var _ Store = (*SQLStore)(nil)

// OpenSQLite opens (creating if needed) the SQLite database at path and
// migrates the cache table. ":memory:" gives a private in-memory database.
func OpenSQLite(path string, opts ...Option) (*SQLStore, error) {
	s := newSettings(opts)

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: NewGormLogger(s.logger),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// one connection: sqlite has a single writer and ":memory:" is per connection
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&posterRecord{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate poster cache: %w", err)
	}

	return &SQLStore{db: db, ttl: s.ttl, now: s.now}, nil
}

// Get returns the entry for key. Expired rows are deleted on read.
func (s *SQLStore) Get(ctx context.Context, key string) (Entry, error) {
	var rec posterRecord
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get poster %s: %w", key, err)
	}

	if expired(rec.StoredAt, s.now(), s.ttl) {
		if err := s.db.WithContext(ctx).Delete(&posterRecord{}, "cache_key = ?", key).Error; err != nil {
			return Entry{}, fmt.Errorf("expire poster %s: %w", key, err)
		}
		return Entry{}, ErrNotFound
	}
	return Entry{Key: rec.Key, URL: rec.URL, Tier: rec.Tier, StoredAt: rec.StoredAt}, nil
}

// Put upserts the entry.
func (s *SQLStore) Put(ctx context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = s.now()
	}
	rec := posterRecord{Key: e.Key, URL: e.URL, Tier: e.Tier, StoredAt: e.StoredAt.UTC()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("put poster %s: %w", e.Key, err)
	}
	return nil
}

// Count returns the number of stored rows.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&posterRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count posters: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
