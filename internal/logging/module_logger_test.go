package logging

import (
	"context"
	"maps"
	"testing"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// fieldRecorder keeps every WithFields call.
type fieldRecorder struct {
	noopLogger
	fields []map[string]any
}

func (r *fieldRecorder) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, maps.Clone(fields))
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "cmsnav.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = WithFields(logger.WithContext(context.Background()), map[string]any{"foo": "bar"})
	logger.Debug("noop")
}

func TestModuleFromProviderAnnotatesModule(t *testing.T) {
	rec := &fieldRecorder{}
	provider := &stubProvider{logger: rec}

	ModulePages.From(provider).Info("with provider")

	if len(provider.requested) != 1 || provider.requested[0] != "cmsnav.pages" {
		t.Fatalf("expected cmsnav.pages, got %v", provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != "cmsnav.pages" {
		t.Fatalf("expected module field, got %v", rec.fields)
	}
}

func TestModuleLoggerDefaultsToRoot(t *testing.T) {
	rec := &fieldRecorder{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "  ")

	if len(provider.requested) != 1 || provider.requested[0] != string(ModuleRoot) {
		t.Fatalf("expected root module, got %v", provider.requested)
	}
	if rec.fields[0]["module"] != string(ModuleRoot) {
		t.Fatalf("expected root module field, got %v", rec.fields[0]["module"])
	}
}

func TestModuleChild(t *testing.T) {
	cases := map[string]Module{
		"Menus":   "cmsnav.commands.menus",
		" pages.": "cmsnav.commands.pages",
		"":        ModuleCommands,
	}
	for in, want := range cases {
		if got := ModuleCommands.Child(in); got != want {
			t.Fatalf("Child(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWithRequestContextSkipsEmptyValues(t *testing.T) {
	rec := &fieldRecorder{}
	_ = WithRequestContext(rec, " /about/ ", "", "footer")

	if len(rec.fields) != 1 {
		t.Fatalf("expected one field set, got %d", len(rec.fields))
	}
	fields := rec.fields[0]
	if fields[fieldPath] != "/about/" {
		t.Fatalf("expected trimmed path, got %v", fields[fieldPath])
	}
	if _, ok := fields[fieldLanguage]; ok {
		t.Fatalf("expected empty language to be skipped")
	}
	if fields[fieldReverseID] != "footer" {
		t.Fatalf("expected reverse id field, got %v", fields[fieldReverseID])
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"request_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"site": "example.com"})

	fields := ContextFields(ctx)
	if fields["request_id"] != "a" || fields["site"] != "example.com" {
		t.Fatalf("unexpected merged fields %v", fields)
	}
	fields["request_id"] = "mutated"
	if ContextFields(ctx)["request_id"] != "a" {
		t.Fatalf("expected ContextFields to return a copy")
	}
}

func TestRequestFieldsSkipsBlanks(t *testing.T) {
	fields := RequestFields("/news/", " ", "news")
	if len(fields) != 2 || fields[fieldPath] != "/news/" || fields[fieldReverseID] != "news" {
		t.Fatalf("unexpected request fields %v", fields)
	}
}
