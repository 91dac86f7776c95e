package cache

import (
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// ErrProviderUnknown reports an unsupported provider name.
var ErrProviderUnknown = errors.New("cache: unknown provider")

const (
	ProviderRistretto = "ristretto"
	ProviderLRU       = "lru"
	ProviderNone      = "none"
)

// Options configures New.
type Options struct {
	Provider   string
	MaxEntries int
	DefaultTTL time.Duration
}

// New builds the fragment cache named by opts.Provider.
func New(opts Options) (interfaces.CacheProvider, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Provider)) {
	case "", ProviderRistretto:
		return NewRistretto(RistrettoConfig{DefaultTTL: opts.DefaultTTL})
	case ProviderLRU:
		return NewLRU(opts.MaxEntries, opts.DefaultTTL)
	case ProviderNone:
		return Nop(), nil
	default:
		return nil, ErrProviderUnknown
	}
}

// Nop returns a cache that never stores anything.
func Nop() interfaces.CacheProvider {
	return nopCache{}
}
