package migrations_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	"github.com/goliatone/go-cms-nav/internal/migrations"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/pkg/testsupport"
)

func newDB(t *testing.T) *bun.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:migrations_%d?mode=memory&cache=shared", time.Now().UnixNano())
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	return db
}

func TestDefaultRegistryAppliesOnce(t *testing.T) {
	ctx := context.Background()
	db := newDB(t)
	registry, err := migrations.Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	applied, err := registry.Apply(ctx, db)
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "20250301000000_navigation_schema" {
		t.Fatalf("unexpected applied migrations %v", applied)
	}

	again, err := registry.Apply(ctx, db)
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected nothing to apply, got %v", again)
	}

	svc := pages.NewService(pages.NewBunPageRepository(db))
	home, err := svc.Create(ctx, pages.CreatePageRequest{
		SiteID:    testsupport.SiteID,
		Titles:    []pages.TitleInput{{Language: "en", Title: "Home", Slug: "home"}},
		Published: true,
	})
	if err != nil {
		t.Fatalf("create page on migrated schema: %v", err)
	}
	if _, err := svc.Get(ctx, home.ID); err != nil {
		t.Fatalf("get page on migrated schema: %v", err)
	}
}

func TestLoadPrefersDialectVariant(t *testing.T) {
	source := fstest.MapFS{
		"sql/001_init.up.sql":        {Data: []byte("CREATE TABLE a (id UUID);\n---bun:split\nCREATE TABLE b (id UUID);")},
		"sql/sqlite/001_init.up.sql": {Data: []byte("CREATE TABLE a (id TEXT);")},
		"sql/002_more.up.sql":        {Data: []byte("CREATE TABLE c (id UUID);")},
		"sql/README.md":              {Data: []byte("ignored")},
	}
	registry := migrations.NewRegistry()
	if err := registry.Load(source, "sql"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	names := registry.Names()
	if len(names) != 2 || names[0] != "001_init" || names[1] != "002_more" {
		t.Fatalf("unexpected names %v", names)
	}

	ctx := context.Background()
	db := newDB(t)
	if _, err := registry.Apply(ctx, db); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var count int
	if err := db.NewRaw("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('a', 'b', 'c')").Scan(ctx, &count); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected sqlite variant to skip table b, got %d tables", count)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := migrations.NewRegistry()
	step := migrations.Migration{Name: "001", Default: []string{"SELECT 1"}}
	if err := registry.Register(step); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(step); !errors.Is(err, migrations.ErrMigrationDuplicate) {
		t.Fatalf("expected ErrMigrationDuplicate, got %v", err)
	}
	if err := registry.Register(migrations.Migration{}); !errors.Is(err, migrations.ErrMigrationNameRequired) {
		t.Fatalf("expected ErrMigrationNameRequired, got %v", err)
	}
}

func TestApplyReportsMissingDialect(t *testing.T) {
	registry := migrations.NewRegistry()
	if err := registry.Register(migrations.Migration{
		Name:       "001_pg_only",
		Statements: map[dialect.Name][]string{dialect.PG: {"SELECT 1"}},
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := registry.Apply(context.Background(), newDB(t))
	if !errors.Is(err, migrations.ErrDialectUnsupported) {
		t.Fatalf("expected ErrDialectUnsupported, got %v", err)
	}
}

func TestSplitDropsEmptyChunks(t *testing.T) {
	got := migrations.Split("\n---bun:split\nSELECT 1;\n---bun:split\n  \n")
	if len(got) != 1 || got[0] != "SELECT 1;" {
		t.Fatalf("unexpected statements %q", got)
	}
}
