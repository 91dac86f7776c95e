package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

//go:embed data/sql/migrations
var embedded embed.FS

const (
	root       = "data/sql/migrations"
	upSuffix   = ".up.sql"
	splitToken = "---bun:split"
)

var (
	ErrMigrationNameRequired = errors.New("migrations: name is required")
	ErrMigrationDuplicate    = errors.New("migrations: migration already registered")
	ErrDialectUnsupported    = errors.New("migrations: dialect has no migration source")
)

// FS exposes the embedded schema migrations.
func FS() fs.FS {
	return embedded
}

// Migration is one schema step. Statements are kept per dialect; the
// default entry is used when a dialect has no dedicated variant.
type Migration struct {
	Name       string
	Statements map[dialect.Name][]string
	Default    []string
}

func (m Migration) statementsFor(name dialect.Name) []string {
	if stmts, ok := m.Statements[name]; ok {
		return stmts
	}
	return m.Default
}

type appliedMigration struct {
	bun.BaseModel `bun:"table:cmsnav_migrations"`

	Name      string    `bun:"name,pk"`
	AppliedAt time.Time `bun:"applied_at,notnull"`
}

// Registry stores schema migrations in name order and applies them once.
type Registry struct {
	mu         sync.RWMutex
	migrations map[string]Migration
}

func NewRegistry() *Registry {
	return &Registry{migrations: map[string]Migration{}}
}

// Default returns a registry loaded with the embedded migrations.
func Default() (*Registry, error) {
	r := NewRegistry()
	if err := r.Load(embedded, root); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds a migration step.
func (r *Registry) Register(m Migration) error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return ErrMigrationNameRequired
	}
	m.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.migrations[name]; exists {
		return fmt.Errorf("%w: %s", ErrMigrationDuplicate, name)
	}
	r.migrations[name] = m
	return nil
}

// Load reads `<dir>/*.up.sql` as the default variant and
// `<dir>/sqlite/*.up.sql` as the SQLite variant.
func (r *Registry) Load(source fs.FS, dir string) error {
	found := map[string]*Migration{}
	collect := func(sub string, target dialect.Name) error {
		entries, err := fs.ReadDir(source, sub)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), upSuffix) {
				continue
			}
			raw, err := fs.ReadFile(source, path.Join(sub, entry.Name()))
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(entry.Name(), upSuffix)
			m, ok := found[name]
			if !ok {
				m = &Migration{Name: name, Statements: map[dialect.Name][]string{}}
				found[name] = m
			}
			stmts := Split(string(raw))
			if target == dialect.Invalid {
				m.Default = stmts
				continue
			}
			m.Statements[target] = stmts
		}
		return nil
	}

	if err := collect(dir, dialect.Invalid); err != nil {
		return err
	}
	if err := collect(path.Join(dir, "sqlite"), dialect.SQLite); err != nil {
		return err
	}
	for _, m := range found {
		if err := r.Register(*m); err != nil {
			return err
		}
	}
	return nil
}

// Names returns the registered migration names in apply order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.migrations))
	for name := range r.migrations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply runs every migration not yet recorded in cmsnav_migrations and
// returns the names it applied.
func (r *Registry) Apply(ctx context.Context, db *bun.DB) ([]string, error) {
	if _, err := db.NewCreateTable().Model((*appliedMigration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("migrations: create tracking table: %w", err)
	}

	var done []string
	if err := db.NewSelect().Model((*appliedMigration)(nil)).Column("name").Scan(ctx, &done); err != nil {
		return nil, fmt.Errorf("migrations: read tracking table: %w", err)
	}
	seen := make(map[string]struct{}, len(done))
	for _, name := range done {
		seen[name] = struct{}{}
	}

	dialectName := db.Dialect().Name()
	applied := []string{}
	for _, name := range r.Names() {
		if _, ok := seen[name]; ok {
			continue
		}
		r.mu.RLock()
		m := r.migrations[name]
		r.mu.RUnlock()

		stmts := m.statementsFor(dialectName)
		if len(stmts) == 0 {
			return applied, fmt.Errorf("%w: %s (%s)", ErrDialectUnsupported, name, dialectName)
		}
		err := db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			for _, stmt := range stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.NewInsert().Model(&appliedMigration{Name: name, AppliedAt: time.Now().UTC()}).Exec(ctx)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migrations: apply %s: %w", name, err)
		}
		applied = append(applied, name)
	}
	return applied, nil
}

// Split breaks a migration file into statements on the bun split marker.
func Split(content string) []string {
	out := []string{}
	for _, chunk := range strings.Split(content, splitToken) {
		if stmt := strings.TrimSpace(chunk); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
