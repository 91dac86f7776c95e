package zaplog

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-cms-nav/internal/logging"
)

func TestProviderNamesChildLoggers(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewProviderFromLogger(zap.New(core))

	logger := logging.ModuleLogger(provider, "cmsnav.menus")
	logger.Info("menu.built", "children", 3)

	entries := logs.FilterMessage("menu.built").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.LoggerName != "cmsnav.menus" {
		t.Fatalf("expected logger name cmsnav.menus, got %q", entry.LoggerName)
	}
	fields := entry.ContextMap()
	if fields["module"] != "cmsnav.menus" {
		t.Fatalf("expected module field, got %v", fields["module"])
	}
	if fields["children"] != int64(3) {
		t.Fatalf("expected children field 3, got %#v", fields["children"])
	}
}

func TestWithContextAppliesContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	provider := NewProviderFromLogger(zap.New(core))

	ctx := logging.ContextWithFields(context.Background(), map[string]any{"path": "/news/"})
	provider.GetLogger("cmsnav.tags").WithContext(ctx).Debug("tag.rendered")

	entries := logs.FilterMessage("tag.rendered").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/news/" {
		t.Fatalf("expected path field, got %v", entries[0].ContextMap())
	}
}

func TestNewProviderValidatesOptions(t *testing.T) {
	if _, err := NewProvider(Config{Level: "loud"}); err == nil {
		t.Fatal("expected invalid level error")
	}
	if _, err := NewProvider(Config{Encoding: "xml"}); err == nil {
		t.Fatal("expected invalid encoding error")
	}
	provider, err := NewProvider(Config{Level: "trace", Development: true, Encoding: "console"})
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	provider.GetLogger("cmsnav").Debug("ready")
}
