package repository

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore is a bounded LRU store with lazy TTL expiry.
type MemoryStore struct {
	mu       sync.Mutex
	items    map[string]*list.Element
	order    *list.List // front is most recently used
	capacity int
	ttl      time.Duration
	now      func() time.Time
	closed   bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := newSettings(opts)
	return &MemoryStore{
		items:    make(map[string]*list.Element, s.capacity),
		order:    list.New(),
		capacity: s.capacity,
		ttl:      s.ttl,
		now:      s.now,
	}
}

// Get returns the entry for key and marks it most recently used.
func (m *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Entry{}, ErrClosed
	}
	el, ok := m.items[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	e := el.Value.(Entry) //nolint:forcetypeassert // only Entry values are stored
	if expired(e.StoredAt, m.now(), m.ttl) {
		m.remove(el)
		return Entry{}, ErrNotFound
	}
	m.order.MoveToFront(el)
	return e, nil
}

// Put inserts or replaces an entry, evicting the least recently used one
// when the store is full.
func (m *MemoryStore) Put(_ context.Context, e Entry) error {
	if err := validate(e); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if e.StoredAt.IsZero() {
		e.StoredAt = m.now()
	}
	if el, ok := m.items[e.Key]; ok {
		el.Value = e
		m.order.MoveToFront(el)
		return nil
	}

	m.items[e.Key] = m.order.PushFront(e)
	for len(m.items) > m.capacity {
		m.remove(m.order.Back())
	}
	return nil
}

// Count returns the number of entries held.
func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

// Close drops every entry. Later calls fail with ErrClosed.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = map[string]*list.Element{}
	m.order.Init()
	m.closed = true
	return nil
}

// remove must be called with m.mu held.
func (m *MemoryStore) remove(el *list.Element) {
	e := m.order.Remove(el).(Entry) //nolint:forcetypeassert // only Entry values are stored
	delete(m.items, e.Key)
}
