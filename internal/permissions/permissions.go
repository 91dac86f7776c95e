// Package permissions carries the editor's grants on the request context.
// Grants are "resource:action" tokens; "resource:*" and "*" are wildcards.
package permissions

import (
	"context"
	"errors"
	"strings"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

const (
	PagesRead          = "pages:read"
	PagesUpdate        = "pages:update"
	PagesPublish       = "pages:publish"
	PlaceholdersUpdate = "placeholders:update"
	CacheDelete        = "cache:delete"
)

var ErrPermissionDenied = errors.New("permissions: denied")

// Error names the permission that was missing.
type Error struct {
	Permission string
}

func (e Error) Error() string {
	if e.Permission == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Permission
}

func (e Error) Unwrap() error { return ErrPermissionDenied }

type Checker interface {
	Allowed(permission string) bool
}

type CheckerFunc func(permission string) bool

func (fn CheckerFunc) Allowed(permission string) bool { return fn(permission) }

// Set is a fixed list of grants.
type Set map[string]struct{}

func NewSet(perms ...string) Set {
	set := Set{}
	for _, perm := range perms {
		if token := normalize(perm); token != "" {
			set[token] = struct{}{}
		}
	}
	return set
}

func (s Set) Allowed(permission string) bool {
	token := normalize(permission)
	if token == "" {
		return false
	}
	resource, _, _ := strings.Cut(token, ":")
	for _, candidate := range []string{token, resource + ":*", "*"} {
		if _, ok := s[candidate]; ok {
			return true
		}
	}
	return false
}

type checkerKey struct{}

// WithChecker stores checker on ctx.
func WithChecker(ctx context.Context, checker Checker) context.Context {
	if ctx == nil || checker == nil {
		return ctx
	}
	return context.WithValue(ctx, checkerKey{}, checker)
}

// WithPermissions stores a fixed set of grants on ctx.
func WithPermissions(ctx context.Context, perms ...string) context.Context {
	if len(perms) == 0 {
		return ctx
	}
	return WithChecker(ctx, NewSet(perms...))
}

// WithAuthProvider asks provider for every check. Provider errors deny.
func WithAuthProvider(ctx context.Context, provider interfaces.AuthProvider) context.Context {
	if ctx == nil || provider == nil {
		return ctx
	}
	return WithChecker(ctx, CheckerFunc(func(permission string) bool {
		allowed, err := provider.HasPermission(ctx, permission)
		return err == nil && allowed
	}))
}

func CheckerFromContext(ctx context.Context) Checker {
	if ctx == nil {
		return nil
	}
	checker, _ := ctx.Value(checkerKey{}).(Checker)
	return checker
}

// Allowed reports whether ctx may use permission. A context without a
// checker is unrestricted, which is how hosts run trusted jobs.
func Allowed(ctx context.Context, permission string) bool {
	return Require(ctx, permission) == nil
}

// Granted reports whether permission was explicitly granted. A context
// without a checker is denied, so templates hide edit controls from
// visitors.
func Granted(ctx context.Context, permission string) bool {
	checker := CheckerFromContext(ctx)
	token := normalize(permission)
	return checker != nil && token != "" && checker.Allowed(token)
}

// Require returns an Error when the checker on ctx denies permission.
func Require(ctx context.Context, permission string) error {
	token := normalize(permission)
	checker := CheckerFromContext(ctx)
	if token == "" || checker == nil || checker.Allowed(token) {
		return nil
	}
	return Error{Permission: token}
}

func normalize(permission string) string {
	return strings.ToLower(strings.TrimSpace(permission))
}
