package cmsnav_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	cmsnav "github.com/goliatone/go-cms-nav"
	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/internal/requests"
)

const manifest = `site:
  domain: facade.test
  name: Facade
pages:
  - key: home
    titles:
      - language: en
        title: Home
  - key: news
    parent: home
    reverse_id: news
    titles:
      - language: en
        title: News
        page_title: Latest News
    plugins:
      - placeholder: content
        type: text
        data:
          body: "<p>Fresh</p>"
`

func newModule(t *testing.T) *cmsnav.Module {
	t.Helper()
	module, err := cmsnav.New(cmsnav.DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = module.Close() })
	return module
}

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte(manifest), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return path
}

func TestModuleSeedsAndRendersManifest(t *testing.T) {
	module := newModule(t)
	ctx := context.Background()

	m, err := module.LoadManifest(writeManifest(t))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	seeded, err := module.Seed(ctx, m)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if len(seeded.Pages) != 2 || seeded.Plugins != 1 {
		t.Fatalf("unexpected seed result: %d pages, %d plugins", len(seeded.Pages), seeded.Plugins)
	}

	req, err := module.Resolver().Resolve(ctx, cmsnav.Incoming{Host: "facade.test", Path: "/news/"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if req.CurrentPage.ID != seeded.Pages["news"].ID {
		t.Fatalf("expected news page, got %s", req.CurrentPage.ID)
	}

	out, err := module.Templates().RenderPage(requests.NewContext(ctx, req), "cms/page.html", req, nil)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	for _, want := range []string{"<title>Latest News</title>", "<p>Fresh</p>", `href="/news/"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	url, err := module.Templates().RenderString(`{% page_id_url "news" %}`, map[string]any{"request": req})
	if err != nil {
		t.Fatalf("page_id_url: %v", err)
	}
	if url != "/news/" {
		t.Fatalf("expected /news/, got %q", url)
	}
	if err := module.InvalidateFragments(ctx); err != nil {
		t.Fatalf("InvalidateFragments: %v", err)
	}
}

func TestModuleRegisterCommands(t *testing.T) {
	module := newModule(t)
	result, err := module.RegisterCommands(cmsnav.Registration{})
	if err != nil {
		t.Fatalf("RegisterCommands: %v", err)
	}
	if len(result.All) != 3 {
		t.Fatalf("expected three handlers, got %d", len(result.All))
	}
	if module.AdminAPI(result) == nil || module.SiteHandler() == nil {
		t.Fatal("expected http surfaces")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := cmsnav.DefaultConfig()
	cfg.DefaultLocale = "fr"
	if _, err := cmsnav.New(cfg); !errors.Is(err, cmsnav.ErrDefaultLocaleNotListed) {
		t.Fatalf("expected ErrDefaultLocaleNotListed, got %v", err)
	}
}

func TestLoadConfigRejectsUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.ini")
	if err := os.WriteFile(path, []byte("x=1"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := cmsnav.LoadConfig(path); !errors.Is(err, cmsnav.ErrConfigFormatUnknown) {
		t.Fatalf("expected ErrConfigFormatUnknown, got %v", err)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	raw := "default_locale: de\nlanguages:\n  - code: de\n    name: Deutsch\n  - code: en\n    name: English\n"
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := cmsnav.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DefaultLocale != "de" || len(cfg.Languages) != 2 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.Cache.Enabled {
		t.Fatal("expected defaults to survive decoding")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db, err := di.OpenDatabase(cmsnav.StorageConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:facade_%d?mode=memory&cache=shared", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	applied, err := cmsnav.Migrate(ctx, db)
	if err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if len(applied) == 0 {
		t.Fatal("expected migrations on an empty database")
	}
	again, err := cmsnav.Migrate(ctx, db)
	if err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("expected nothing pending, got %v", again)
	}
	if cmsnav.MigrationsFS() == nil {
		t.Fatal("expected embedded migrations")
	}
}
