package plugins_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-cms-nav/internal/plugins"
	"github.com/goliatone/go-cms-nav/internal/validation"
)

var pageID = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")

type stubRenderer struct{}

func (stubRenderer) Render(string, any, ...io.Writer) (string, error) { return "", nil }

func (stubRenderer) RenderString(tpl string, data any, _ ...io.Writer) (string, error) {
	values, _ := data.(map[string]any)
	return strings.ReplaceAll(tpl, "{{ width }}", fmt.Sprint(values["width"])), nil
}

func (stubRenderer) RegisterFilter(string, func(any, any) (any, error)) error { return nil }

func (stubRenderer) GlobalContext(any) error { return nil }

type failingPlugin struct{}

func (failingPlugin) Name() string { return "failing" }

func (failingPlugin) Schema() map[string]any { return nil }

func (failingPlugin) Render(context.Context, plugins.RenderContext, *plugins.Plugin) (string, error) {
	return "", errors.New("boom")
}

func newService(t *testing.T) plugins.Service {
	t.Helper()
	registry := plugins.NewRegistry()
	if err := plugins.RegisterBuiltins(registry); err != nil {
		t.Fatalf("RegisterBuiltins: %v", err)
	}
	registry.MustRegister(plugins.SnippetPlugin{Renderer: stubRenderer{}}, failingPlugin{})
	return plugins.NewService(plugins.NewMemoryPluginRepository(), registry)
}

func TestRenderPlaceholderOrdersTopLevelPlugins(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	first := 0
	second, err := svc.Add(ctx, plugins.AddPluginRequest{
		PageID: pageID, Language: "en", Placeholder: "Content", PluginType: "markdown",
		Data: map[string]any{"body": "**second**"},
	})
	if err != nil {
		t.Fatalf("Add markdown: %v", err)
	}
	if second.Position != 0 || second.Placeholder != "content" {
		t.Fatalf("unexpected plugin %+v", second)
	}
	if _, err := svc.Update(ctx, plugins.UpdatePluginRequest{ID: second.ID, Position: intPtr(5)}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if _, err := svc.Add(ctx, plugins.AddPluginRequest{
		PageID: pageID, Language: "en", Placeholder: "content", PluginType: "text", Position: &first,
		Data: map[string]any{"body": "<p>first</p>"},
	}); err != nil {
		t.Fatalf("Add text: %v", err)
	}
	if _, err := svc.Add(ctx, plugins.AddPluginRequest{
		PageID: pageID, Language: "en", Placeholder: "content", PluginType: "link", ParentID: &second.ID,
		Data: map[string]any{"url": "/nested/"},
	}); err != nil {
		t.Fatalf("Add nested: %v", err)
	}
	if _, err := svc.Add(ctx, plugins.AddPluginRequest{
		PageID: pageID, Language: "de", Placeholder: "content", PluginType: "text",
		Data: map[string]any{"body": "deutsch"},
	}); err != nil {
		t.Fatalf("Add german: %v", err)
	}

	out, err := svc.RenderPlaceholder(ctx, plugins.Slot{PageID: pageID, Language: "EN", Placeholder: `"CONTENT"`}, nil)
	if err != nil {
		t.Fatalf("RenderPlaceholder: %v", err)
	}
	if !strings.HasPrefix(out, "<p>first</p>") || !strings.Contains(out, "<strong>second</strong>") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Contains(out, "/nested/") || strings.Contains(out, "deutsch") {
		t.Fatalf("expected nested and foreign plugins to be skipped, got %q", out)
	}

	children, err := svc.Children(ctx, second.ID)
	if err != nil || len(children) != 1 {
		t.Fatalf("expected one child, got %d err=%v", len(children), err)
	}
	if err := svc.Delete(ctx, second.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	children, _ = svc.Children(ctx, second.ID)
	if len(children) != 0 {
		t.Fatalf("expected nested plugins to be deleted, got %d", len(children))
	}
}

func TestAddValidatesPluginData(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.Add(ctx, plugins.AddPluginRequest{PageID: pageID, Language: "en", Placeholder: "content", PluginType: "link", Data: map[string]any{"name": "x"}})
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	_, err = svc.Add(ctx, plugins.AddPluginRequest{PageID: pageID, Language: "en", Placeholder: "content", PluginType: "video"})
	if !errors.Is(err, plugins.ErrTypeUnknown) {
		t.Fatalf("expected ErrTypeUnknown, got %v", err)
	}
	_, err = svc.Add(ctx, plugins.AddPluginRequest{PageID: pageID, Language: "en", PluginType: "text", Data: map[string]any{"body": "x"}})
	if !errors.Is(err, plugins.ErrPlaceholderRequired) {
		t.Fatalf("expected ErrPlaceholderRequired, got %v", err)
	}
}

func TestSnippetPluginUsesExtraContext(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.Add(ctx, plugins.AddPluginRequest{
		PageID: pageID, Language: "en", Placeholder: "sidebar", PluginType: "snippet",
		Data: map[string]any{"template": "<div style=\"width: {{ width }}px\"></div>"},
	}); err != nil {
		t.Fatalf("Add snippet: %v", err)
	}
	out, err := svc.RenderPlaceholder(ctx, plugins.Slot{PageID: pageID, Language: "en", Placeholder: "sidebar"}, map[string]any{"width": 940})
	if err != nil {
		t.Fatalf("RenderPlaceholder: %v", err)
	}
	if out != `<div style="width: 940px"></div>` {
		t.Fatalf("unexpected snippet output %q", out)
	}
}

func TestRenderPlaceholderReportsFailingPlugin(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	if _, err := svc.Add(ctx, plugins.AddPluginRequest{PageID: pageID, Language: "en", Placeholder: "content", PluginType: "failing"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	_, err := svc.RenderPlaceholder(ctx, plugins.Slot{PageID: pageID, Language: "en", Placeholder: "content"}, nil)
	if !plugins.IsRenderError(err) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestLinkPluginEscapes(t *testing.T) {
	out, err := plugins.LinkPlugin{}.Render(context.Background(), plugins.RenderContext{}, &plugins.Plugin{
		Data: map[string]any{"url": "/a?b=1&c=2", "name": "<b>x</b>", "new_window": true},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := `<a href="/a?b=1&amp;c=2" target="_blank">&lt;b&gt;x&lt;/b&gt;</a>`
	if out != want {
		t.Fatalf("expected %q, got %q", want, out)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := plugins.NewRegistry()
	if err := registry.Register(plugins.TextPlugin{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Register(plugins.TextPlugin{}); !errors.Is(err, plugins.ErrTypeExists) {
		t.Fatalf("expected ErrTypeExists, got %v", err)
	}
	if names := registry.Names(); len(names) != 1 || names[0] != "text" {
		t.Fatalf("unexpected names %v", names)
	}
}

func intPtr(v int) *int { return &v }
