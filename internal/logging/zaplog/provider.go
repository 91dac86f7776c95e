package zaplog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Config captures the options exposed by the zap adapter.
type Config struct {
	Level       string
	Development bool
	Encoding    string
	AddSource   bool
}

// Provider adapts a zap logger to interfaces.LoggerProvider.
type Provider struct {
	root *zap.Logger
}

// NewProvider builds a zap logger from a production or development config.
func NewProvider(cfg Config) (*Provider, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	if level := strings.TrimSpace(cfg.Level); level != "" {
		atomic, err := zap.ParseAtomicLevel(normalizeLevel(level))
		if err != nil {
			return nil, fmt.Errorf("logging: invalid zap level %q: %w", cfg.Level, err)
		}
		zcfg.Level = atomic
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Encoding)) {
	case "":
	case "json", "console":
		zcfg.Encoding = strings.ToLower(strings.TrimSpace(cfg.Encoding))
	default:
		return nil, fmt.Errorf("logging: unsupported zap encoding %q", cfg.Encoding)
	}
	zcfg.DisableCaller = !cfg.AddSource

	root, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build zap logger: %w", err)
	}
	return &Provider{root: root}, nil
}

// NewProviderFromLogger wraps an existing zap logger.
func NewProviderFromLogger(root *zap.Logger) *Provider {
	if root == nil {
		root = zap.NewNop()
	}
	return &Provider{root: root}
}

// GetLogger returns a named child logger.
func (p *Provider) GetLogger(name string) interfaces.Logger {
	if p == nil || p.root == nil {
		return logging.NoOp()
	}
	inner := p.root
	if trimmed := strings.TrimSpace(name); trimmed != "" {
		inner = inner.Named(trimmed)
	}
	return &adapter{inner: inner.Sugar()}
}

// Sync flushes buffered entries.
func (p *Provider) Sync() error {
	if p == nil || p.root == nil {
		return nil
	}
	return p.root.Sync()
}

type adapter struct {
	inner *zap.SugaredLogger
}

var (
	_ interfaces.Logger       = (*adapter)(nil)
	_ interfaces.FieldsLogger = (*adapter)(nil)
)

func (l *adapter) Trace(msg string, args ...any) { l.inner.Debugw(msg, args...) }
func (l *adapter) Debug(msg string, args ...any) { l.inner.Debugw(msg, args...) }
func (l *adapter) Info(msg string, args ...any)  { l.inner.Infow(msg, args...) }
func (l *adapter) Warn(msg string, args ...any)  { l.inner.Warnw(msg, args...) }
func (l *adapter) Error(msg string, args ...any) { l.inner.Errorw(msg, args...) }
func (l *adapter) Fatal(msg string, args ...any) { l.inner.Fatalw(msg, args...) }

func (l *adapter) WithFields(fields map[string]any) interfaces.Logger {
	if len(fields) == 0 {
		return l
	}
	return &adapter{inner: l.inner.With(sortedPairs(fields)...)}
}

func (l *adapter) WithContext(ctx context.Context) interfaces.Logger {
	if ctx == nil {
		return l
	}
	return l.WithFields(logging.ContextFields(ctx))
}

func sortedPairs(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}
	return args
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zapcore.DebugLevel.String()
	case "warning":
		return zapcore.WarnLevel.String()
	default:
		return strings.ToLower(strings.TrimSpace(level))
	}
}
