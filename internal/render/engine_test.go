package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-cms-nav/internal/i18n"
	"github.com/goliatone/go-cms-nav/internal/pages"
	"github.com/goliatone/go-cms-nav/internal/permissions"
	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/render"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/sites"
	"github.com/goliatone/go-cms-nav/internal/tags"
	"github.com/goliatone/go-cms-nav/pkg/testsupport"
)

type fixture struct {
	tree    *testsupport.Tree
	plugins plugins.Service
	library *tags.Library
	site    *sites.Site
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fixed := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	pageSvc := pages.NewService(pages.NewMemoryPageRepository(), pages.WithClock(func() time.Time { return fixed }))
	tree, err := testsupport.SeedTree(context.Background(), pageSvc)
	if err != nil {
		t.Fatalf("seed tree: %v", err)
	}
	registry := plugins.NewRegistry()
	if err := plugins.RegisterBuiltins(registry); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	pluginSvc := plugins.NewService(plugins.NewMemoryPluginRepository(), registry)
	library := tags.NewLibrary(pageSvc, nil,
		tags.WithPlugins(pluginSvc),
		tags.WithLanguages(i18n.Config{
			DefaultLocale: "en",
			Languages: []i18n.Language{
				{Code: "en", Name: "English"},
				{Code: "de", Name: "Deutsch"},
			},
		}),
	)
	return &fixture{
		tree:    tree,
		plugins: pluginSvc,
		library: library,
		site:    &sites.Site{ID: testsupport.SiteID, Domain: "cms.test"},
	}
}

func (f *fixture) engine(t *testing.T, opts ...render.Option) *render.Engine {
	t.Helper()
	engine, err := render.New(f.library, opts...)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return engine
}

func (f *fixture) request(t *testing.T, slug string) *requests.Request {
	t.Helper()
	page, err := f.tree.Page(context.Background(), slug)
	if err != nil {
		t.Fatalf("load %s: %v", slug, err)
	}
	return &requests.Request{Site: f.site, Path: "/" + slug + "/", Language: "en", CurrentPage: page}
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func TestShowMenuRendersNestedNavigation(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(t)

	out, err := engine.RenderString(`<ul>{% show_menu 0 100 100 100 %}</ul>`, map[string]any{
		"request": f.request(t, "team"),
	})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	html := squash(out)
	for _, want := range []string{
		`<li class="ancestor"> <a href="/about/">About</a>`,
		`<li class="selected"> <a href="/about/team/">Team</a>`,
		`<a href="/about/history/">History</a>`,
		`<a href="/about/team/people/">People</a>`,
		`<a href="/legal/">Legal</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
	if strings.Contains(html, "Hidden") {
		t.Fatalf("hidden page leaked into menu: %s", html)
	}
}

func TestShowBreadcrumbAndSubMenu(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(t)
	data := map[string]any{"request": f.request(t, "people")}

	out, err := engine.RenderString(`{% show_breadcrumb %}`, data)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	want := `<a href="/">Home</a> &raquo; <a href="/about/">About</a> &raquo; <a href="/about/team/">Team</a> &raquo; <span class="active">People</span>`
	if squash(out) != want {
		t.Fatalf("unexpected breadcrumb %q", squash(out))
	}

	out, err = engine.RenderString(`{% show_sub_menu 1 %}`, map[string]any{"request": f.request(t, "about")})
	if err != nil {
		t.Fatalf("RenderString sub menu: %v", err)
	}
	html := squash(out)
	if !strings.Contains(html, `<a href="/about/team/">Team</a>`) || strings.Contains(html, "People") {
		t.Fatalf("unexpected sub menu %s", html)
	}
}

func TestLinkTagsAndPageAttribute(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(t)
	data := map[string]any{"request": f.request(t, "about")}

	out, err := engine.RenderString(`{% page_id_url "legal" %}|{% page_language_url "de" %}|{% page_attribute "slug" %}`, data)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "/legal/|/de/about-de/|about" {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = engine.RenderString(`{% language_chooser %}`, data)
	if err != nil {
		t.Fatalf("RenderString chooser: %v", err)
	}
	html := squash(out)
	if !strings.Contains(html, `<li class="current"><a href="/en/about/">English</a></li>`) ||
		!strings.Contains(html, `<li><a href="/de/about-de/">Deutsch</a></li>`) {
		t.Fatalf("unexpected chooser %s", html)
	}
}

func TestPlaceholderTagRendersPluginsUnescaped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	engine := f.engine(t)

	if _, err := f.plugins.Add(ctx, plugins.AddPluginRequest{
		PageID: f.tree.ID("about"), Language: "en", Placeholder: "content", PluginType: plugins.TypeText,
		Data: map[string]any{"body": "<p>hello</p>"},
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	out, err := engine.RenderPage(ctx, "page.html", f.request(t, "about"), nil)
	if err == nil {
		t.Fatalf("expected missing template error, got %q", out)
	}

	out, err = engine.RenderString(`<main>{% placeholder "Content" %}</main>{% show_placeholder_by_id "content" "about" %}`, map[string]any{
		"request": f.request(t, "history"),
	})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "<main></main><p>hello</p>" {
		t.Fatalf("unexpected placeholder output %q", out)
	}
}

func TestTemplateDirOverridesEmbeddedTemplates(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "cms"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	files := map[string]string{
		"page.html":           `{% page_attribute "title" %}:{% show_breadcrumb %}`,
		"cms/breadcrumb.html": `{% for crumb in ancestors %}{{ crumb.DisplayTitle }}/{% endfor %}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	f := newFixture(t)
	engine := f.engine(t, render.WithTemplateDir(dir))
	out, err := engine.RenderPage(context.Background(), "page.html", f.request(t, "team"), nil)
	if err != nil {
		t.Fatalf("RenderPage: %v", err)
	}
	if out != "Team:Home/About/Team/" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestHasPermissionFilter(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(t)
	req := f.request(t, "about")
	tpl := `{% if page|has_permission:request %}edit{% else %}view{% endif %}`

	out, err := engine.RenderString(tpl, map[string]any{"request": req, "page": req.CurrentPage})
	if err != nil || out != "view" {
		t.Fatalf("expected view, got %q (%v)", out, err)
	}
	req.User = permissions.NewSet(permissions.PagesUpdate)
	out, err = engine.RenderString(tpl, map[string]any{"request": req, "page": req.CurrentPage})
	if err != nil || out != "edit" {
		t.Fatalf("expected edit, got %q (%v)", out, err)
	}
}

func TestHasPermissionFilterUsesContextChecker(t *testing.T) {
	dir := t.TempDir()
	tpl := `{% if page|has_permission:request %}edit{% else %}view{% endif %}`
	if err := os.WriteFile(filepath.Join(dir, "toolbar.html"), []byte(tpl), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f := newFixture(t)
	engine := f.engine(t, render.WithTemplateDir(dir))
	req := f.request(t, "about")
	data := map[string]any{"page": req.CurrentPage}

	out, err := engine.RenderPage(context.Background(), "toolbar.html", req, data)
	if err != nil || out != "view" {
		t.Fatalf("expected view for anonymous visitor, got %q (%v)", out, err)
	}

	ctx := permissions.WithPermissions(context.Background(), permissions.PagesUpdate)
	out, err = engine.RenderPage(ctx, "toolbar.html", req, data)
	if err != nil || out != "edit" {
		t.Fatalf("expected edit from context checker, got %q (%v)", out, err)
	}
	if req.User != nil {
		t.Fatal("expected the caller's request to stay untouched")
	}

	req.User = permissions.NewSet(permissions.PagesRead)
	out, err = engine.RenderPage(ctx, "toolbar.html", req, data)
	if err != nil || out != "view" {
		t.Fatalf("expected the request user to win over the context, got %q (%v)", out, err)
	}
}

func TestTagsWithoutRequestRenderNothing(t *testing.T) {
	engine := newFixture(t).engine(t)
	out, err := engine.RenderString(`[{% show_menu %}{% page_attribute "title" %}]`, nil)
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	if out != "[]" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestTemplateSyntaxErrors(t *testing.T) {
	engine := newFixture(t).engine(t)
	for _, src := range []string{
		`{% page_attribute %}`,
		`{% placeholder "a" "b" "c" %}`,
		`{% page_language_url %}`,
	} {
		if _, err := engine.RenderString(src, nil); err == nil {
			t.Fatalf("expected syntax error for %s", src)
		}
	}
}

func TestRendererContract(t *testing.T) {
	engine := newFixture(t).engine(t)

	if _, err := engine.Render("cms/content.html", 42); !errors.Is(err, render.ErrUnsupportedData) {
		t.Fatalf("expected ErrUnsupportedData, got %v", err)
	}
	if err := engine.RegisterFilter("shout", func(in any, _ any) (any, error) {
		s, _ := in.(string)
		return strings.ToUpper(s), nil
	}); err != nil {
		t.Fatalf("RegisterFilter: %v", err)
	}
	if err := engine.GlobalContext(map[string]any{"site_name": "cms"}); err != nil {
		t.Fatalf("GlobalContext: %v", err)
	}

	var sb strings.Builder
	out, err := engine.RenderString(`{{ site_name|shout }}`, nil, &sb)
	if err != nil || out != "CMS" || sb.String() != "CMS" {
		t.Fatalf("unexpected output %q / %q (%v)", out, sb.String(), err)
	}

	out, err = engine.Render("cms/content.html", map[string]any{"content": "<b>x</b>"})
	if err != nil || out != "<b>x</b>" {
		t.Fatalf("unexpected content render %q (%v)", out, err)
	}

	if _, err := render.New(nil); !errors.Is(err, render.ErrLibraryRequired) {
		t.Fatalf("expected ErrLibraryRequired, got %v", err)
	}
}

func TestShowMenuReadsRootIDAfterNextPage(t *testing.T) {
	f := newFixture(t)
	engine := f.engine(t)

	out, err := engine.RenderString(`<ul>{% show_menu 1 100 100 100 "cms/menu.html" next "about" %}</ul>`, map[string]any{
		"request": f.request(t, "history"),
	})
	if err != nil {
		t.Fatalf("RenderString: %v", err)
	}
	html := squash(out)
	for _, want := range []string{
		`<a href="/about/team/">Team</a>`,
		`<a href="/about/history/">History</a>`,
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %s", want, html)
		}
	}
	if strings.Contains(html, "Legal") {
		t.Fatalf("expected menu below about only, got %s", html)
	}
}
