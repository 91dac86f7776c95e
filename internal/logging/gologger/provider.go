// Package gologger backs interfaces.LoggerProvider with go-logger.
package gologger

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// DefaultNamespace prefixes every child logger name.
const DefaultNamespace = "cmsnav"

// Config selects level, output format and focus for the root logger.
type Config struct {
	Level     string
	Format    string
	AddSource bool
	// Focus limits output to the listed logger names (cmsnav.menus, ...).
	Focus []string
	// Namespace overrides DefaultNamespace.
	Namespace string
}

var formats = map[string]func() glog.Option{
	"":        func() glog.Option { return glog.WithLoggerTypeJSON() },
	"json":    func() glog.Option { return glog.WithLoggerTypeJSON() },
	"console": func() glog.Option { return glog.WithLoggerTypeConsole() },
	"pretty":  func() glog.Option { return glog.WithLoggerTypePretty() },
}

var levels = map[string]string{
	"trace":   glog.Trace,
	"debug":   glog.Debug,
	"info":    glog.Info,
	"warn":    glog.Warn,
	"warning": glog.Warn,
	"error":   glog.Error,
	"fatal":   glog.Fatal,
}

// Provider hands out go-logger children named after navigation modules.
type Provider struct {
	root      *glog.BaseLogger
	namespace string
}

// NewProvider builds the go-logger root.
func NewProvider(cfg Config) (*Provider, error) {
	format, ok := formats[strings.ToLower(strings.TrimSpace(cfg.Format))]
	if !ok {
		return nil, fmt.Errorf("logging: unsupported go-logger format %q", cfg.Format)
	}
	options := []glog.Option{format()}
	if level, ok := levels[strings.ToLower(strings.TrimSpace(cfg.Level))]; ok {
		options = append(options, glog.WithLevel(level))
	}
	if cfg.AddSource {
		options = append(options, glog.WithAddSource(true))
	}

	namespace := strings.Trim(strings.TrimSpace(cfg.Namespace), ".")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	p := &Provider{root: glog.NewLogger(options...), namespace: namespace}

	focus := make([]string, 0, len(cfg.Focus))
	for _, name := range cfg.Focus {
		if name = p.qualify(name); name != "" {
			focus = append(focus, name)
		}
	}
	if len(focus) > 0 {
		p.root.Focus(focus...)
	}
	return p, nil
}

// GetLogger returns the child logger for name. Names outside the provider
// namespace are qualified, so "menus" and "cmsnav.menus" share a logger.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	name = p.qualify(name)
	if name == "" {
		return wrap(p.root)
	}
	return wrap(p.root.GetLogger(name))
}

func (p *Provider) qualify(name string) string {
	name = strings.Trim(strings.TrimSpace(name), ".")
	if name == "" || name == p.namespace || strings.HasPrefix(name, p.namespace+".") {
		return name
	}
	return p.namespace + "." + name
}

func wrap(inner glog.Logger) interfaces.Logger {
	if inner == nil {
		return logging.NoOp()
	}
	return &adapter{inner: inner}
}

// adapter forwards to go-logger. Loggers that cannot carry fields get them
// appended to each call as sorted key/value pairs.
type adapter struct {
	inner  glog.Logger
	fields map[string]any
}

func (l *adapter) Trace(msg string, args ...any) { l.inner.Trace(msg, l.args(args)...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debug(msg, l.args(args)...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Info(msg, l.args(args)...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warn(msg, l.args(args)...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Error(msg, l.args(args)...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatal(msg, l.args(args)...) }

func (l *adapter) args(args []any) []any {
	if len(l.fields) == 0 {
		return args
	}
	out := make([]any, 0, len(args)+2*len(l.fields))
	out = append(out, args...)
	for _, key := range slices.Sorted(maps.Keys(l.fields)) {
		out = append(out, key, l.fields[key])
	}
	return out
}

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	if fl, ok := l.inner.(glog.FieldsLogger); ok {
		return &adapter{inner: fl.WithFields(maps.Clone(fields)), fields: l.fields}
	}
	merged := make(map[string]any, len(l.fields)+len(fields))
	maps.Copy(merged, l.fields)
	maps.Copy(merged, fields)
	return &adapter{inner: l.inner, fields: merged}
}

// WithContext binds ctx and applies fields stored with
// logging.ContextWithFields.
func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	bound := &adapter{inner: l.inner.WithContext(ctx), fields: l.fields}
	return bound.WithFields(logging.ContextFields(ctx))
}
