package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

const (
	rootModule     = "assets"
	browseModule   = "assets.browse"
	uploadModule   = "assets.upload"
	editorModule   = "assets.editor"
	apiModule      = "assets.api"
	commandsModule = "assets.commands"
)

const (
	fieldAssetKind  = "asset_kind"
	fieldGeneration = "generation"
	fieldQuery      = "query"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the top level asset library logger.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// BrowseLogger returns the logger namespace reserved for browsing controllers.
func BrowseLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, browseModule)
}

// UploadLogger returns the logger namespace reserved for upload workflows.
func UploadLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, uploadModule)
}

// EditorLogger returns the logger namespace reserved for the image editor.
func EditorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, editorModule)
}

// APILogger returns the logger namespace reserved for the asset API client.
func APILogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, apiModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithBrowseContext enriches the logger with the asset kind, request
// generation and canonical query of a catalog fetch. Empty values are ignored.
func WithBrowseContext(logger interfaces.Logger, kind string, generation uint64, query string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		fields[fieldAssetKind] = trimmed
	}
	if generation > 0 {
		fields[fieldGeneration] = generation
	}
	if query != "" {
		fields[fieldQuery] = query
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
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

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
