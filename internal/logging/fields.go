package logging

import (
	"context"
	"maps"
	"strings"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

type fieldsKey struct{}

// ContextWithFields layers fields over the ones already on ctx. Loggers read
// them back in WithContext.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil || len(fields) == 0 {
		return ctx
	}
	merged := ContextFields(ctx)
	if merged == nil {
		merged = make(map[string]any, len(fields))
	}
	maps.Copy(merged, fields)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// ContextFields returns a copy of the fields stored on ctx.
func ContextFields(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	if len(fields) == 0 {
		return nil
	}
	return maps.Clone(fields)
}

// WithFields returns logger with fields attached, or logger itself when it
// cannot carry fields.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fl, ok := logger.(interfaces.FieldsLogger); ok {
		return fl.WithFields(maps.Clone(fields))
	}
	return logger
}

// RequestFields names a page request in log entries. Blank values are left
// out.
func RequestFields(path, language, reverseID string) map[string]any {
	fields := map[string]any{}
	for key, value := range map[string]string{
		fieldPath:      path,
		fieldLanguage:  language,
		fieldReverseID: reverseID,
	} {
		if value = strings.TrimSpace(value); value != "" {
			fields[key] = value
		}
	}
	return fields
}
