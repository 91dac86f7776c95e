package di_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-nav/internal/adapters/cache"
	"github.com/goliatone/go-cms-nav/internal/di"
	"github.com/goliatone/go-cms-nav/internal/menus"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/runtimeconfig"
	"github.com/goliatone/go-cms-nav/internal/sites"
	"github.com/goliatone/go-cms-nav/internal/tags"
	"github.com/goliatone/go-cms-nav/pkg/testsupport"
)

func newContainer(t *testing.T, cfg runtimeconfig.Config, opts ...di.Option) *di.Container {
	t.Helper()
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	t.Cleanup(func() { _ = container.Close() })
	return container
}

func seed(t *testing.T, container *di.Container) *testsupport.Tree {
	t.Helper()
	tree, err := testsupport.SeedTree(context.Background(), container.PageService())
	if err != nil {
		t.Fatalf("seed tree: %v", err)
	}
	return tree
}

func requestFor(t *testing.T, tree *testsupport.Tree, slug string) *requests.Request {
	t.Helper()
	page, err := tree.Page(context.Background(), slug)
	if err != nil {
		t.Fatalf("load %s: %v", slug, err)
	}
	return &requests.Request{
		Site:        &sites.Site{ID: testsupport.SiteID, Domain: "cms.test"},
		Path:        "/" + slug + "/",
		Language:    "en",
		CurrentPage: page,
	}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = ""
	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestNewContainerWiresMemoryRuntime(t *testing.T) {
	container := newContainer(t, runtimeconfig.DefaultConfig())
	if container.BunDB() != nil {
		t.Fatal("expected memory storage by default")
	}
	if _, ok := container.FragmentCache().(*cache.Ristretto); !ok {
		t.Fatalf("expected ristretto fragment cache, got %T", container.FragmentCache())
	}
	if container.Notifier() == nil {
		t.Fatal("expected log notifier by default")
	}
	if container.Extenders() == nil {
		t.Fatal("expected extender registry when extenders are enabled")
	}
	if container.TemplateRenderer() == nil || container.TagLibrary() == nil {
		t.Fatal("expected tag library and renderer")
	}

	tree := seed(t, container)
	req := requestFor(t, tree, "team")
	out, err := container.TemplateEngine().RenderString(`{% page_id_url "about" %}`, map[string]any{"request": req})
	if err != nil {
		t.Fatalf("render page_id_url: %v", err)
	}
	if out != "/about/" {
		t.Fatalf("expected /about/, got %q", out)
	}

	key := tags.PageIDURLKey("about", "en")
	waitForCache(t, container, key)
	if cached, _ := container.FragmentCache().Get(context.Background(), key); cached != "/about/" {
		t.Fatalf("unexpected cached url %v", cached)
	}
}

// ristretto applies writes asynchronously.
func waitForCache(t *testing.T, container *di.Container, key string) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := container.FragmentCache().Get(context.Background(), key); err == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %s to be cached", key)
}

func TestNewContainerWithSQLiteStorage(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage = runtimeconfig.StorageConfig{
		Provider:    "bun",
		Driver:      "sqlite",
		DSN:         fmt.Sprintf("file:di_storage_%d?mode=memory&cache=shared", time.Now().UnixNano()),
		AutoMigrate: true,
	}
	cfg.Cache.Provider = "lru"

	container := newContainer(t, cfg)
	if container.BunDB() == nil {
		t.Fatal("expected bun database")
	}
	tree := seed(t, container)

	menu, err := container.TagLibrary().ShowMenu(context.Background(), requestFor(t, tree, "about"), menus.DefaultMenuOptions())
	if err != nil {
		t.Fatalf("ShowMenu: %v", err)
	}
	children, ok := menu["children"].([]*menus.Node)
	if !ok || len(children) == 0 {
		t.Fatalf("expected menu children from sqlite storage, got %#v", menu["children"])
	}
	titles := []string{}
	for _, child := range children {
		titles = append(titles, child.DisplayTitle())
	}
	if !strings.Contains(strings.Join(titles, ","), "Home") {
		t.Fatalf("expected Home in root menu, got %v", titles)
	}
}

func TestNewContainerDisabledCache(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Cache.Enabled = false
	container := newContainer(t, cfg)

	ctx := context.Background()
	if err := container.FragmentCache().Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := container.FragmentCache().Get(ctx, "k"); !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("expected disabled cache to miss, got %v", err)
	}
}

func TestNewContainerWithoutExtenders(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Extenders = false
	container := newContainer(t, cfg)
	if container.Extenders() != nil {
		t.Fatal("expected no extender registry")
	}
	if container.MenuBuilder().Extenders() != nil {
		t.Fatal("expected builder without extenders")
	}
}

func TestMissingReverseIDNotifiesManagers(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Notifications.Managers = []string{"ops@cms.test"}
	sink := testsupport.NewLogSink()
	container := newContainer(t, cfg, di.WithLoggerProvider(sink))
	tree := seed(t, container)

	out, err := container.TemplateEngine().RenderString(`{% page_id_url "gone" %}`, map[string]any{"request": requestFor(t, tree, "about")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out != "" {
		t.Fatalf("expected empty url, got %q", out)
	}

	entry, ok := sink.Find("notify.message")
	if !ok {
		t.Fatalf("expected notify.message entry, got %#v", sink.Entries())
	}
	if subject, _ := entry.Fields["subject"].(string); !strings.Contains(subject, "cms.test") {
		t.Fatalf("expected subject naming the domain, got %v", entry.Fields["subject"])
	}
	if to := entry.Fields["to"]; to != "ops@cms.test" {
		t.Fatalf("expected managers as recipients, got %v", to)
	}
	if module := entry.Fields["module"]; module != "cmsnav.notify" {
		t.Fatalf("expected cmsnav.notify module, got %v", module)
	}
}

func TestNotifierNoneDisablesNotifications(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Notifications.Provider = "none"
	container := newContainer(t, cfg)
	if container.Notifier() != nil {
		t.Fatalf("expected no notifier, got %T", container.Notifier())
	}
}

func TestPlaceholderExtraContextFromConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Placeholders = map[string]runtimeconfig.PlaceholderConfig{
		"sidebar": {ExtraContext: map[string]any{"width": 320}},
	}
	container := newContainer(t, cfg)
	tree := seed(t, container)
	ctx := context.Background()

	about, err := tree.Page(ctx, "about")
	if err != nil {
		t.Fatalf("load about: %v", err)
	}
	if _, err := container.PluginService().Add(ctx, plugins.AddPluginRequest{
		PageID:      about.ID,
		Language:    "en",
		Placeholder: "Sidebar",
		PluginType:  plugins.TypeSnippet,
		Data:        map[string]any{"template": "w={{ width }}"},
	}); err != nil {
		t.Fatalf("add plugin: %v", err)
	}

	out, err := container.TagLibrary().Placeholder(ctx, requestFor(t, tree, "about"), "sidebar", nil)
	if err != nil {
		t.Fatalf("Placeholder: %v", err)
	}
	if !strings.Contains(out, "w=320") {
		t.Fatalf("expected extra context in output, got %q", out)
	}
}
