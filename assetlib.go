package assetlib

import (
	"context"
	"errors"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/di"
	"github.com/goliatone/go-asset-library/internal/editor"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/internal/upload"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// ErrPickerUnavailable reports a picker whose kind is not enabled in Config.Kinds.
var ErrPickerUnavailable = errors.New("assetlib: picker not available")

// Kind identifies a picker.
type Kind = assetapi.Kind

const (
	KindSnippets = assetapi.KindSnippets
	KindImages   = assetapi.KindImages
	KindFiles    = assetapi.KindFiles
)

// Asset exports the catalog record.
type Asset = assetapi.Asset

// Tag exports the catalog tag.
type Tag = assetapi.Tag

// Picker exports the per-kind strategy, browsing controller and upload workflow.
type Picker = di.Picker

// Snapshot exports the browsing state rendered by hosts.
type Snapshot = browse.Snapshot

// UploadFile exports a file handed to an upload workflow.
type UploadFile = upload.File

// ImageEditor exports the image edit controller.
type ImageEditor = editor.Controller

// EditorOptions exports the image editor options.
type EditorOptions = editor.Options

// Selection exports the payload delivered to picker callbacks.
type Selection = interfaces.AssetSelection

// Module represents the top level asset library runtime facade.
type Module struct {
	container *di.Container
	logger    interfaces.Logger
}

// New constructs an asset library module using the provided configuration
// and optional DI overrides.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{
		container: container,
		logger:    logging.RootLogger(container.LoggerProvider()),
	}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Snippets returns the snippet picker, or nil when snippets are disabled.
func (m *Module) Snippets() *Picker { return m.picker(KindSnippets) }

// Images returns the image picker, or nil when images are disabled.
func (m *Module) Images() *Picker { return m.picker(KindImages) }

// Files returns the file picker, or nil when files are disabled.
func (m *Module) Files() *Picker { return m.picker(KindFiles) }

// PickSnippet opens the snippet picker. Snippets longer than maxLength are
// not selectable; maxLength <= 0 means unlimited.
func (m *Module) PickSnippet(ctx context.Context, callback interfaces.SelectionCallback, maxLength int) (*Picker, error) {
	picker := m.picker(KindSnippets)
	if picker == nil {
		return nil, ErrPickerUnavailable
	}
	if setter, ok := picker.Strategy.(strategy.MaxLengthSetter); ok {
		setter.SetMaxLength(maxLength)
	}
	return m.open(ctx, picker, callback)
}

// PickImage opens the image picker.
func (m *Module) PickImage(ctx context.Context, callback interfaces.SelectionCallback) (*Picker, error) {
	picker := m.picker(KindImages)
	if picker == nil {
		return nil, ErrPickerUnavailable
	}
	return m.open(ctx, picker, callback)
}

// PickFile opens the file picker.
func (m *Module) PickFile(ctx context.Context, callback interfaces.SelectionCallback) (*Picker, error) {
	picker := m.picker(KindFiles)
	if picker == nil {
		return nil, ErrPickerUnavailable
	}
	return m.open(ctx, picker, callback)
}

// NewImageEditor builds an image editor for src at its true dimensions.
func (m *Module) NewImageEditor(src string, width, height int, opts EditorOptions) *ImageEditor {
	return m.container.NewImageEditor(src, width, height, opts)
}

// Close releases pending refreshes and dispatcher subscriptions.
func (m *Module) Close() {
	m.container.Close()
}

func (m *Module) open(ctx context.Context, picker *Picker, callback interfaces.SelectionCallback) (*Picker, error) {
	picker.Strategy.SetCallback(callback)
	if err := picker.Browser.Prepare(ctx); err != nil {
		m.logger.Warn("assets.picker.prepare_failed", "asset_kind", picker.Kind.String(), "error", err)
	}
	return picker, nil
}

func (m *Module) picker(kind Kind) *Picker {
	picker, ok := m.container.Picker(kind)
	if !ok {
		m.logger.Error("assets.picker.unavailable", "asset_kind", kind.String())
		return nil
	}
	return picker
}
