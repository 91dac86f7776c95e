package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Module is a dotted logger name under the cmsnav root.
type Module string

const (
	ModuleRoot     Module = "cmsnav"
	ModulePages    Module = "cmsnav.pages"
	ModuleMenus    Module = "cmsnav.menus"
	ModuleTags     Module = "cmsnav.tags"
	ModulePlugins  Module = "cmsnav.plugins"
	ModuleRender   Module = "cmsnav.render"
	ModuleDI       Module = "cmsnav.di"
	ModuleNotify   Module = "cmsnav.notify"
	ModuleCommands Module = "cmsnav.commands"
)

const (
	fieldReverseID = "reverse_id"
	fieldLanguage  = "language"
	fieldPath      = "path"
)

// Child appends a segment: ModuleCommands.Child("menus") is
// cmsnav.commands.menus.
func (m Module) Child(name string) Module {
	name = strings.Trim(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "" {
		return m
	}
	return Module(string(m) + "." + name)
}

// From fetches the module logger from provider.
func (m Module) From(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, string(m))
}

// ModuleLogger returns the provider's logger for module tagged with a
// module field. A nil provider yields a no-op logger.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module = strings.TrimSpace(module); module == "" {
		module = string(ModuleRoot)
	}
	var logger interfaces.Logger = NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}
	return WithFields(logger, map[string]any{"module": module})
}

// WithRequestContext attaches the request path, language and an optional
// reverse id.
func WithRequestContext(logger interfaces.Logger, path, language, reverseID string) interfaces.Logger {
	return WithFields(logger, RequestFields(path, language, reverseID))
}

// NoOp returns a logger that drops everything.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger   { return n }
func (n noopLogger) WithContext(context.Context) interfaces.Logger { return n }
