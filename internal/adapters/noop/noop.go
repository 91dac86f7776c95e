package noop

import (
	"context"

	"github.com/goliatone/go-cms-nav/internal/adapters/cache"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Cache returns an interfaces.CacheProvider that never stores anything.
func Cache() interfaces.CacheProvider {
	return cache.Nop()
}

// Auth returns an auth provider for anonymous visitors. Every permission
// check is denied.
func Auth() interfaces.AuthProvider {
	return authProvider{}
}

type authProvider struct{}

func (authProvider) CurrentUserID(context.Context) (string, error) {
	return "", nil
}

func (authProvider) HasPermission(context.Context, string) (bool, error) {
	return false, nil
}
