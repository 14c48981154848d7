// Package attribution maintains a best-effort model of how each visitor
// arrived (first touch, last touch, UTM parameters) and of session activity
// (session start, page views), persisted across requests in pluggable
// key-value stores instead of ambient browser storage.
package attribution

import (
	"context"
	"sync"

	apperrors "github.com/hud203/leadengine/internal/errors"
)

// Store keys. Durable keys survive across sessions, volatile keys expire
// with the visitor's session.
const (
	KeyFirstTouchSource    = "first_touch_source"
	KeyFirstTouchTimestamp = "first_touch_timestamp"
	KeyLastTouchSource     = "last_touch_source"
	KeySessionStart        = "session_start"
	KeyPageViews           = "page_views"
)

// Store is the key-value capability the tracker is given for one visitor.
// Implementations are scoped to a single visitor; keys never collide across
// visitors. Get returns apperrors.ErrKeyNotFound for keys never set.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Stores hands out the durable and volatile store pair for a visitor.
// RedisStores and MemoryStores both satisfy it; the HTTP layer only sees
// this interface.
type Stores interface {
	Durable(visitorID string) Store
	Volatile(visitorID string) Store
}

// MemoryStore is an in-process Store used in tests and as the fallback when
// no redis address is configured. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.data[key]
	if !ok {
		return "", apperrors.ErrKeyNotFound
	}
	return value, nil
}

func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// MemoryStores hands out per-visitor MemoryStore pairs so the in-process
// fallback has the same durable/volatile split as the redis deployment.
// Volatile stores are not actually expired here; the fallback is meant for
// development and tests, not multi-instance production.
type MemoryStores struct {
	mu       sync.Mutex
	durable  map[string]*MemoryStore
	volatile map[string]*MemoryStore
}

// NewMemoryStores creates an empty provider.
func NewMemoryStores() *MemoryStores {
	return &MemoryStores{
		durable:  make(map[string]*MemoryStore),
		volatile: make(map[string]*MemoryStore),
	}
}

// Durable returns the cross-session store for a visitor, creating it on first use.
func (p *MemoryStores) Durable(visitorID string) Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.durable[visitorID]
	if !ok {
		store = NewMemoryStore()
		p.durable[visitorID] = store
	}
	return store
}

// Volatile returns the per-session store for a visitor, creating it on first use.
func (p *MemoryStores) Volatile(visitorID string) Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	store, ok := p.volatile[visitorID]
	if !ok {
		store = NewMemoryStore()
		p.volatile[visitorID] = store
	}
	return store
}
