package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrUnknownExtension reports an extension name goldmark does not provide.
var ErrUnknownExtension = errors.New("markdown: unknown extension")

// DefaultExtensions apply when Options.Extensions is empty.
var DefaultExtensions = []string{"gfm", "linkify", "tasklist"}

var aliases = map[string]string{
	"tables":   "table",
	"autolink": "linkify",
}

var extensions = map[string]goldmark.Extender{
	"gfm":           extension.GFM,
	"table":         extension.Table,
	"strikethrough": extension.Strikethrough,
	"linkify":       extension.Linkify,
	"tasklist":      extension.TaskList,
	"definition":    extension.DefinitionList,
	"footnote":      extension.Footnote,
}

// Options configure a Renderer.
type Options struct {
	Extensions []string
	HardWraps  bool
	// SafeMode drops raw HTML from plugin bodies.
	SafeMode bool
}

// Renderer converts Markdown plugin bodies to HTML. The goldmark engine is
// built once and shared across goroutines.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a renderer. Headings always get ids so page anchors
// can target them.
func NewRenderer(opts Options) (*Renderer, error) {
	names := opts.Extensions
	if len(names) == 0 {
		names = DefaultExtensions
	}
	exts, err := resolveExtensions(names)
	if err != nil {
		return nil, err
	}

	var rendererOptions []renderer.Option
	if opts.HardWraps {
		rendererOptions = append(rendererOptions, html.WithHardWraps())
	}
	if !opts.SafeMode {
		rendererOptions = append(rendererOptions, html.WithUnsafe())
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOptions...),
	)
	return &Renderer{md: md}, nil
}

// Default returns a renderer with DefaultExtensions and raw HTML kept.
func Default() *Renderer {
	r, err := NewRenderer(Options{})
	if err != nil {
		panic(err)
	}
	return r
}

// Convert writes the HTML for source to w.
func (r *Renderer) Convert(source []byte, w io.Writer) error {
	if err := r.md.Convert(source, w); err != nil {
		return fmt.Errorf("markdown: convert: %w", err)
	}
	return nil
}

// Render converts source and returns the HTML.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func resolveExtensions(names []string) ([]goldmark.Extender, error) {
	out := make([]goldmark.Extender, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := aliases[key]; ok {
			key = canonical
		}
		if key == "" || seen[key] {
			continue
		}
		ext, ok := extensions[key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, name)
		}
		seen[key] = true
		out = append(out, ext)
	}
	return out, nil
}
