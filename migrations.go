package cmsnav

import (
	"context"
	"io/fs"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-cms-nav/internal/migrations"
)

// MigrationsFS returns the embedded SQL migrations. Dialect specific
// variants live under a directory named after the dialect.
func MigrationsFS() fs.FS {
	return migrations.FS()
}

// Migrate applies pending schema migrations to db and returns their names.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	registry, err := migrations.Default()
	if err != nil {
		return nil, err
	}
	return registry.Apply(ctx, db)
}
