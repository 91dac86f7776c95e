package validation

import (
	"errors"
	"strings"
	"testing"
)

var linkSchema = map[string]any{
	"fields": []any{
		map[string]any{"name": "url", "type": "string", "required": true},
		map[string]any{"name": "new_window", "type": "boolean"},
		map[string]any{"name": "weight", "type": "integer"},
	},
}

func TestFieldShorthandValidatesPluginData(t *testing.T) {
	schema, err := Compile(linkSchema)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := schema.Validate(map[string]any{"url": "/about/", "weight": 3}); err != nil {
		t.Fatalf("expected data to validate, got %v", err)
	}

	err = schema.Validate(map[string]any{"new_window": "yes", "extra": 1})
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("expected ErrSchemaValidation, got %v", err)
	}
	if issues := Issues(err); len(issues) < 2 {
		t.Fatalf("expected several issues, got %+v", issues)
	}
	if !strings.Contains(err.Error(), "#") {
		t.Fatalf("expected issue locations in %q", err.Error())
	}
}

func TestExpandKeepsJSONSchema(t *testing.T) {
	raw := map[string]any{"type": "object", "properties": map[string]any{"body": map[string]any{"type": "string"}}}
	if got := Expand(raw); got["properties"] == nil || got["additionalProperties"] != nil {
		t.Fatalf("expected json schema unchanged, got %v", got)
	}
	open := Expand(map[string]any{"fields": []any{"body"}, "additionalProperties": true})
	if open["additionalProperties"] != true {
		t.Fatalf("expected additional properties allowed, got %v", open)
	}
}

func TestCompileWithoutSchemaAcceptsAnything(t *testing.T) {
	schema, err := Compile(nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := schema.Validate(map[string]any{"anything": true}); err != nil {
		t.Fatalf("expected nil schema to accept data, got %v", err)
	}
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	_, err := Compile(map[string]any{"type": "object", "properties": map[string]any{"a": map[string]any{"type": 12}}})
	if !errors.Is(err, ErrSchemaInvalid) {
		t.Fatalf("expected ErrSchemaInvalid, got %v", err)
	}
}
