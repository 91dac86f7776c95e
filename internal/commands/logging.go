package commands

import (
	"strings"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Logger returns the logger for a command group such as menus or pages. It
// lives under cmsnav.commands and carries the group as command_group.
func Logger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	group = strings.ToLower(strings.TrimSpace(group))
	if group == "" {
		group = "core"
	}
	return logging.WithFields(
		logging.ModuleCommands.Child(group).From(provider),
		map[string]any{"command_group": group},
	)
}
