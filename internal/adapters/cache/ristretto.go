package cache

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultNumCounters = 1e7
	defaultMaxCost     = 1 << 26
	defaultBufferItems = 64
)

// RistrettoConfig tunes the ristretto backed cache. Zero values use defaults.
type RistrettoConfig struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	DefaultTTL  time.Duration
}

// Ristretto stores fragments in a ristretto cache. Writes are buffered; call
// Wait when a subsequent read must observe them.
type Ristretto struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration

	// ristretto hashes keys, so Clear is the only bulk removal it offers.
	mu     sync.RWMutex
	closed bool
}

func NewRistretto(cfg RistrettoConfig) (*Ristretto, error) {
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = defaultNumCounters
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = defaultMaxCost
	}
	if cfg.BufferItems <= 0 {
		cfg.BufferItems = defaultBufferItems
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{cache: c, defaultTTL: cfg.DefaultTTL}, nil
}

func (r *Ristretto) Get(_ context.Context, key string) (any, error) {
	if r.isClosed() {
		return nil, ErrMiss
	}
	value, ok := r.cache.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	return value, nil
}

func (r *Ristretto) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if r.isClosed() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	cost := int64(1)
	if s, ok := value.(string); ok && len(s) > 0 {
		cost = int64(len(s))
	}
	if ttl > 0 {
		r.cache.SetWithTTL(key, value, cost, ttl)
	} else {
		r.cache.Set(key, value, cost)
	}
	return nil
}

func (r *Ristretto) Delete(_ context.Context, key string) error {
	if r.isClosed() {
		return nil
	}
	r.cache.Del(key)
	return nil
}

func (r *Ristretto) Clear(context.Context) error {
	if r.isClosed() {
		return nil
	}
	r.cache.Clear()
	return nil
}

// Wait blocks until buffered writes are applied.
func (r *Ristretto) Wait() {
	if !r.isClosed() {
		r.cache.Wait()
	}
}

func (r *Ristretto) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	r.cache.Close()
}

func (r *Ristretto) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
