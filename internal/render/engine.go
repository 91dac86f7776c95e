package render

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/internal/requests"
	"github.com/goliatone/go-cms-nav/internal/tags"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

//go:embed templates
var embedded embed.FS

const (
	engineKey  = "cms_engine"
	contextKey = "cms_context"
	requestKey = "request"
)

var (
	ErrLibraryRequired = errors.New("render: tag library is required")
	ErrUnsupportedData = errors.New("render: template data must be a map")
)

type Option func(*Engine)

// WithTemplateDir layers a directory over the embedded templates. Files
// found there win.
func WithTemplateDir(dir string) Option {
	return func(e *Engine) {
		e.dir = strings.TrimSpace(dir)
	}
}

// WithDebug recompiles templates on every render.
func WithDebug(debug bool) Option {
	return func(e *Engine) {
		e.debug = debug
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Engine renders pongo2 templates with the navigation tags available.
type Engine struct {
	set     *pongo2.TemplateSet
	library *tags.Library
	dir     string
	debug   bool
	logger  interfaces.Logger
}

var _ interfaces.TemplateRenderer = (*Engine)(nil)

func New(library *tags.Library, opts ...Option) (*Engine, error) {
	if library == nil {
		return nil, ErrLibraryRequired
	}
	if err := registerTags(); err != nil {
		return nil, err
	}
	e := &Engine{library: library, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(e)
	}

	base, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	loader := &layeredLoader{}
	if e.dir != "" {
		info, err := os.Stat(e.dir)
		if err != nil {
			return nil, fmt.Errorf("render: template dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("render: template dir %s is not a directory", e.dir)
		}
		loader.layers = append(loader.layers, os.DirFS(e.dir))
	}
	loader.layers = append(loader.layers, base)

	e.set = pongo2.NewSet("cmsnav", loader)
	e.set.Debug = e.debug
	e.set.Globals[engineKey] = e
	return e, nil
}

// Library returns the tag library backing the template tags.
func (e *Engine) Library() *tags.Library {
	return e.library
}

// RenderPage renders the named template for req. The tags read the
// request and ctx from the template context. A permission checker bound
// on ctx stands in for a request without a user.
func (e *Engine) RenderPage(ctx context.Context, name string, req *requests.Request, data map[string]any) (string, error) {
	values := make(pongo2.Context, len(data)+2)
	for key, value := range data {
		values[key] = value
	}
	values[requestKey] = req.WithContextUser(ctx)
	values[contextKey] = ctx
	return e.execute(name, values)
}

func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	values, err := toContext(data)
	if err != nil {
		return "", err
	}
	html, err := e.execute(name, values)
	if err != nil {
		return "", err
	}
	return html, writeAll(html, out)
}

func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	values, err := toContext(data)
	if err != nil {
		return "", err
	}
	tpl, err := e.set.FromString(templateContent)
	if err != nil {
		return "", err
	}
	html, err := tpl.Execute(values)
	if err != nil {
		return "", err
	}
	return html, writeAll(html, out)
}

// RegisterFilter adds a filter to every template. pongo2 keeps filters
// per process, so a later registration replaces an earlier one.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	if fn == nil {
		return fmt.Errorf("render: filter %s has no function", name)
	}
	filter := func(in *pongo2.Value, param *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
		out, err := fn(in.Interface(), param.Interface())
		if err != nil {
			return nil, &pongo2.Error{Sender: "filter:" + name, OrigError: err}
		}
		return pongo2.AsValue(out), nil
	}
	if pongo2.FilterExists(name) {
		return pongo2.ReplaceFilter(name, filter)
	}
	return pongo2.RegisterFilter(name, filter)
}

// GlobalContext merges data into the values every template sees.
func (e *Engine) GlobalContext(data any) error {
	values, err := toContext(data)
	if err != nil {
		return err
	}
	for key, value := range values {
		if key == engineKey {
			continue
		}
		e.set.Globals[key] = value
	}
	return nil
}

func (e *Engine) execute(name string, values pongo2.Context) (string, error) {
	tpl, err := e.set.FromCache(name)
	if err != nil {
		e.logger.Error("render.template.load_failed", "template", name, "error", err)
		return "", err
	}
	html, err := tpl.Execute(values)
	if err != nil {
		e.logger.Error("render.template.execute_failed", "template", name, "error", err)
		return "", err
	}
	return html, nil
}

func toContext(data any) (pongo2.Context, error) {
	switch values := data.(type) {
	case nil:
		return pongo2.Context{}, nil
	case pongo2.Context:
		return values, nil
	case tags.Context:
		return pongo2.Context(values), nil
	case map[string]any:
		return pongo2.Context(values), nil
	default:
		return nil, ErrUnsupportedData
	}
}

func writeAll(html string, out []io.Writer) error {
	for _, w := range out {
		if w == nil {
			continue
		}
		if _, err := io.WriteString(w, html); err != nil {
			return err
		}
	}
	return nil
}

// layeredLoader resolves every name from the template root and reads the
// first layer that has it.
type layeredLoader struct {
	layers []fs.FS
}

func (l *layeredLoader) Abs(_, name string) string {
	return path.Clean(strings.TrimPrefix(name, "/"))
}

func (l *layeredLoader) Get(name string) (io.Reader, error) {
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, name)
		if err == nil {
			return bytes.NewReader(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("render: template %s: %w", name, fs.ErrNotExist)
}
