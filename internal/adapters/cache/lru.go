package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultLRUSize = 1024

type lruEntry struct {
	value     any
	expiresAt time.Time
}

// LRU is a bounded fragment cache with per-entry expiry.
type LRU struct {
	cache      *lru.Cache[string, lruEntry]
	defaultTTL time.Duration
	now        func() time.Time
}

func NewLRU(size int, defaultTTL time.Duration) (*LRU, error) {
	if size <= 0 {
		size = defaultLRUSize
	}
	c, err := lru.New[string, lruEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: c, defaultTTL: defaultTTL, now: time.Now}, nil
}

func (l *LRU) Get(_ context.Context, key string) (any, error) {
	entry, ok := l.cache.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	if !entry.expiresAt.IsZero() && !l.now().Before(entry.expiresAt) {
		l.cache.Remove(key)
		return nil, ErrMiss
	}
	return entry.value, nil
}

func (l *LRU) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = l.defaultTTL
	}
	entry := lruEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = l.now().Add(ttl)
	}
	l.cache.Add(key, entry)
	return nil
}

func (l *LRU) Delete(_ context.Context, key string) error {
	l.cache.Remove(key)
	return nil
}

func (l *LRU) Clear(context.Context) error {
	l.cache.Purge()
	return nil
}

// Len reports the number of stored entries, expired ones included.
func (l *LRU) Len() int {
	return l.cache.Len()
}
