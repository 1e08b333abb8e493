package commands

import (
	"strings"

	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// CommandLogger returns a logger for asset command handlers scoped to the
// commands module and tagged with the handler name.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "core"
	}
	return logging.WithFields(logging.CommandsLogger(provider), map[string]any{
		"component":      "command",
		"command_module": name,
	})
}
