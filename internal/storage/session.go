// Package storage provides key/value media for the analysis history: an
// in-process session cache, Redis, and a SQLite file.
package storage

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultSessionTTL is how long an idle session history is kept in memory
	DefaultSessionTTL = 24 * time.Hour
	// DefaultCleanupInterval is how often expired session entries are purged
	DefaultCleanupInterval = 10 * time.Minute
)

// Session is an in-process medium whose values expire after a TTL,
// the server-side equivalent of browser session storage.
type Session struct {
	cache *cache.Cache
}

// NewSession creates a Session. A zero ttl uses DefaultSessionTTL.
func NewSession(ttl, cleanupInterval time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Session{cache: cache.New(ttl, cleanupInterval)}
}

// Get returns the value stored under key
func (s *Session) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if x, found := s.cache.Get(key); found {
		value, ok := x.(string)
		return value, ok, nil
	}
	return "", false, nil
}

// Set stores value under key, resetting its expiry
func (s *Session) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

// Delete removes key
func (s *Session) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.cache.Delete(key)
	return nil
}

// Len returns the number of live keys
func (s *Session) Len() int {
	return s.cache.ItemCount()
}
