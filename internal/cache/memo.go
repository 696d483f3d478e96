// Package cache provides an explicit memo cache for pure, argument-keyed results
package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alphadose/haxmap"

	"github.com/bobmcallan/finboard/internal/common"
)

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

func (e *entry) expired(now time.Time) bool {
	return e.ttl > 0 && now.Sub(e.storedAt) >= e.ttl
}

// Memo maps (function identity, argument tuple) keys to results with a per-entry TTL.
// Entries are dropped on expiry, on Invalidate/Clear, or by a periodic Sweep.
type Memo struct {
	entries *haxmap.Map[string, *entry]
	logger  *common.Logger
	now     func() time.Time

	// generation advances on every Invalidate or Clear.
	generation atomic.Uint64
}

// New creates an empty memo cache.
func New(logger *common.Logger) *Memo {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Memo{
		entries: haxmap.New[string, *entry](),
		logger:  logger,
		now:     time.Now,
	}
}

// Key builds a cache key from a function identity and its arguments.
func Key(fn string, args ...any) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, fn)
	for _, a := range args {
		parts = append(parts, fmt.Sprint(a))
	}
	return strings.Join(parts, "|")
}

// Get returns the cached value for key if present and not expired.
func (m *Memo) Get(key string) (any, bool) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	if e.expired(m.now()) {
		m.entries.Del(key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key. A ttl <= 0 keeps the entry until invalidated.
func (m *Memo) Set(key string, value any, ttl time.Duration) {
	m.entries.Set(key, &entry{value: value, storedAt: m.now(), ttl: ttl})
}

// Do returns the cached result for key, computing and storing it on a miss.
// Errors are returned to the caller and never cached. A result whose computation
// overlapped an Invalidate or Clear is returned but not stored.
func Do[T any](m *Memo, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if v, ok := m.Get(key); ok {
		if typed, ok := v.(T); ok {
			m.logger.Trace().Str("key", key).Msg("Cache hit")
			return typed, nil
		}
	}

	gen := m.generation.Load()
	result, err := compute()
	if err != nil {
		var zero T
		return zero, err
	}
	if m.generation.Load() != gen {
		m.logger.Debug().Str("key", key).Msg("Cache invalidated during compute, result not stored")
		return result, nil
	}
	m.Set(key, result, ttl)
	m.logger.Trace().Str("key", key).Msg("Cache store")
	return result, nil
}

// Invalidate removes every entry whose key starts with prefix and returns how many were removed.
func (m *Memo) Invalidate(prefix string) int {
	m.generation.Add(1)
	var keys []string
	m.entries.ForEach(func(k string, _ *entry) bool {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
		return true
	})
	if len(keys) > 0 {
		m.entries.Del(keys...)
	}
	return len(keys)
}

// Clear removes every entry.
func (m *Memo) Clear() int {
	n := m.Invalidate("")
	m.logger.Info().Int("entries", n).Msg("Cache cleared")
	return n
}

// Sweep removes expired entries and returns how many were removed.
func (m *Memo) Sweep() int {
	now := m.now()
	var keys []string
	m.entries.ForEach(func(k string, e *entry) bool {
		if e.expired(now) {
			keys = append(keys, k)
		}
		return true
	})
	if len(keys) > 0 {
		m.entries.Del(keys...)
	}
	if len(keys) > 0 {
		m.logger.Debug().Int("expired", len(keys)).Msg("Cache sweep")
	}
	return len(keys)
}

// Len returns the number of stored entries, expired or not.
func (m *Memo) Len() int {
	return int(m.entries.Len())
}
