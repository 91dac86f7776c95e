package plugins

import (
	"context"
	"fmt"
	"html"
	"maps"
	"strings"

	"github.com/goliatone/go-cms-nav/internal/markdown"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

const (
	TypeText     = "text"
	TypeMarkdown = "markdown"
	TypeLink     = "link"
	TypeSnippet  = "snippet"
)

// TextPlugin outputs its body as stored. Bodies are trusted editor HTML.
type TextPlugin struct{}

func (TextPlugin) Name() string { return TypeText }

func (TextPlugin) Schema() map[string]any {
	return map[string]any{
		"fields": []any{
			map[string]any{"name": "body", "type": "string", "required": true},
		},
	}
}

func (TextPlugin) Render(_ context.Context, _ RenderContext, plugin *Plugin) (string, error) {
	return stringField(plugin.Data, "body"), nil
}

// MarkdownPlugin renders a Markdown body with goldmark.
type MarkdownPlugin struct {
	Renderer *markdown.Renderer
}

func NewMarkdownPlugin(opts markdown.Options) (MarkdownPlugin, error) {
	r, err := markdown.NewRenderer(opts)
	if err != nil {
		return MarkdownPlugin{}, err
	}
	return MarkdownPlugin{Renderer: r}, nil
}

func (MarkdownPlugin) Name() string { return TypeMarkdown }

func (MarkdownPlugin) Schema() map[string]any {
	return map[string]any{
		"fields": []any{
			map[string]any{"name": "body", "type": "string", "required": true},
		},
	}
}

func (p MarkdownPlugin) Render(_ context.Context, _ RenderContext, plugin *Plugin) (string, error) {
	r := p.Renderer
	if r == nil {
		r = markdown.Default()
	}
	return r.Render(stringField(plugin.Data, "body"))
}

// LinkPlugin renders an anchor.
type LinkPlugin struct{}

func (LinkPlugin) Name() string { return TypeLink }

func (LinkPlugin) Schema() map[string]any {
	return map[string]any{
		"fields": []any{
			map[string]any{"name": "url", "type": "string", "required": true},
			map[string]any{"name": "name", "type": "string"},
			map[string]any{"name": "new_window", "type": "boolean"},
		},
	}
}

func (LinkPlugin) Render(_ context.Context, _ RenderContext, plugin *Plugin) (string, error) {
	url := stringField(plugin.Data, "url")
	name := stringField(plugin.Data, "name")
	if name == "" {
		name = url
	}
	target := ""
	if newWindow, _ := plugin.Data["new_window"].(bool); newWindow {
		target = ` target="_blank"`
	}
	return fmt.Sprintf(`<a href="%s"%s>%s</a>`, html.EscapeString(url), target, html.EscapeString(name)), nil
}

// SnippetPlugin renders a template string against the placeholder context.
// Keys under "context" in the plugin data override template values.
type SnippetPlugin struct {
	Renderer interfaces.TemplateRenderer
}

func (SnippetPlugin) Name() string { return TypeSnippet }

func (SnippetPlugin) Schema() map[string]any {
	return map[string]any{
		"fields": []any{
			map[string]any{"name": "template", "type": "string", "required": true},
			map[string]any{"name": "context", "type": "object"},
		},
	}
}

func (p SnippetPlugin) Render(_ context.Context, rc RenderContext, plugin *Plugin) (string, error) {
	if p.Renderer == nil {
		return "", fmt.Errorf("plugins: snippet renderer not configured")
	}
	values := make(map[string]any, len(rc.Values)+4)
	maps.Copy(values, rc.Values)
	if extra, ok := plugin.Data["context"].(map[string]any); ok {
		maps.Copy(values, extra)
	}
	return p.Renderer.RenderString(stringField(plugin.Data, "template"), values)
}

// RegisterBuiltins registers text, markdown and link. Snippets need a
// renderer and are registered by the caller.
func RegisterBuiltins(r *Registry) error {
	for _, typ := range []Type{TextPlugin{}, MarkdownPlugin{Renderer: markdown.Default()}, LinkPlugin{}} {
		if err := r.Register(typ); err != nil {
			return err
		}
	}
	return nil
}

func stringField(data map[string]any, key string) string {
	if data == nil {
		return ""
	}
	switch value := data[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case nil:
		return ""
	default:
		return fmt.Sprint(value)
	}
}
