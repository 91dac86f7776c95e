package di

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-cms-nav/internal/migrations"
	"github.com/goliatone/go-cms-nav/internal/runtimeconfig"
)

var ErrStorageOpen = errors.New("di: open storage")

// OpenDatabase opens the bun database described by cfg. SQLite connections
// are limited to one so in-memory databases stay shared.
func OpenDatabase(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "sqlite":
		sqlDB, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageOpen, err)
		}
		sqlDB.SetMaxOpenConns(1)
		return bun.NewDB(sqlDB, sqlitedialect.New()), nil
	case "postgres":
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorageOpen, err)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %s", runtimeconfig.ErrStorageDriverUnknown, cfg.Driver)
	}
}

func (c *Container) configureStorage() error {
	if c.bunDB == nil && strings.EqualFold(strings.TrimSpace(c.Config.Storage.Provider), "bun") {
		db, err := OpenDatabase(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.bunDB == nil || !c.Config.Storage.AutoMigrate {
		return nil
	}

	registry, err := migrations.Default()
	if err != nil {
		return c.failStorage(fmt.Errorf("di: load migrations: %w", err))
	}
	applied, err := registry.Apply(context.Background(), c.bunDB)
	if err != nil {
		return c.failStorage(err)
	}
	if len(applied) > 0 {
		c.logger.Info("container.migrations.applied", "migrations", applied)
	}
	return nil
}

func (c *Container) failStorage(err error) error {
	if c.ownsDB && c.bunDB != nil {
		_ = c.bunDB.Close()
		c.bunDB = nil
	}
	return err
}

func (c *Container) storageName() string {
	if c.bunDB == nil {
		return "memory"
	}
	return c.bunDB.Dialect().Name().String()
}
