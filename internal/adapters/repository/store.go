// Package repository stores resolved poster URLs between requests.
package repository

import (
	"context"
	"time"
)

// Entry is one cached poster.
type Entry struct {
	Key      string
	URL      string
	Tier     string
	StoredAt time.Time
}

// Store provides read/write access to cached posters.
type Store interface {
	// Get returns the entry for key.
	// Returns ErrNotFound if the key is unknown or its entry has expired.
	Get(ctx context.Context, key string) (Entry, error)

	// Put inserts or replaces the entry for e.Key.
	Put(ctx context.Context, e Entry) error

	// Count returns the number of stored entries, expired ones included
	// until they are evicted.
	Count(ctx context.Context) (int64, error)

	// Close releases the store's resources.
	Close() error
}

func validate(e Entry) error {
	if e.Key == "" || e.URL == "" {
		return ErrInvalidEntry
	}
	return nil
}

func expired(storedAt, now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(storedAt) > ttl
}
