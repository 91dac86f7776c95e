package bootstrap

import (
	"context"
	"fmt"
	"strings"

	cmsnav "github.com/goliatone/go-cms-nav"
	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Options captures configuration for navctl bootstraps.
type Options struct {
	ConfigPath   string
	ManifestPath string
	// Debug enables structured logging at debug level.
	Debug          bool
	SkipMigrations bool
	LoggerProvider interfaces.LoggerProvider
}

// Module wraps the navigation module and the site seeded from the manifest.
type Module struct {
	Module *cmsnav.Module
	Seeded *cmsnav.SeedResult
	Logger interfaces.Logger
}

// BuildModule loads the config, constructs the module and applies the
// manifest when one is given.
func BuildModule(ctx context.Context, opts Options) (*Module, error) {
	cfg := cmsnav.DefaultConfig()
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		loaded, err := cmsnav.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if opts.Debug {
		cfg.Features.Logger = true
		cfg.Logging.Level = "debug"
	}
	if opts.SkipMigrations {
		cfg.Storage.AutoMigrate = false
	}

	diOpts := []di.Option{}
	if opts.LoggerProvider != nil {
		diOpts = append(diOpts, di.WithLoggerProvider(opts.LoggerProvider))
	}
	module, err := cmsnav.New(cfg, diOpts...)
	if err != nil {
		return nil, fmt.Errorf("initialise navigation module: %w", err)
	}
	out := &Module{
		Module: module,
		Logger: module.Container().Logger("cmsnav.cli"),
	}

	if path := strings.TrimSpace(opts.ManifestPath); path != "" {
		manifest, err := module.LoadManifest(path)
		if err != nil {
			_ = module.Close()
			return nil, err
		}
		seeded, err := module.Seed(ctx, manifest)
		if err != nil {
			_ = module.Close()
			return nil, fmt.Errorf("seed %s: %w", path, err)
		}
		out.Seeded = seeded
	}
	return out, nil
}

// Close releases the module.
func (m *Module) Close() error {
	if m == nil || m.Module == nil {
		return nil
	}
	return m.Module.Close()
}
