package interfaces

import "context"

// AuthProvider answers permission questions for the user bound to ctx.
type AuthProvider interface {
	CurrentUserID(ctx context.Context) (string, error)
	HasPermission(ctx context.Context, permission string) (bool, error)
}
