package strategy

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

var (
	// ErrExtensionNotAllowed reports an extension outside the allow-list.
	ErrExtensionNotAllowed = errors.New("strategy: extension not allowed")
	// ErrNotFit reports a snippet longer than the configured maximum.
	ErrNotFit = errors.New("strategy: asset does not fit")
	// ErrNoSelector reports a copying strategy built without a selection handler.
	ErrNoSelector = errors.New("strategy: selection handler not configured")
)

// URLBuilder builds listing URLs for an asset kind.
type URLBuilder interface {
	List(kind assetapi.Kind, query string) (string, error)
}

// Selector executes selection-copy commands.
type Selector interface {
	Execute(ctx context.Context, msg commands.SelectAssetCommand) error
}

// ErrorReporter receives user-visible error messages from a strategy.
type ErrorReporter interface {
	ReportError(message string)
}

// Strategy is the per-kind policy a browsing controller is built around.
type Strategy interface {
	Kind() assetapi.Kind
	BuildURL(query string) (string, error)
	IsFit(asset assetapi.Asset) bool
	IsAllowedExtension(ext string) bool
	AllowedExtensions() []string
	ExtensionFilter() string
	SelectAsset(ctx context.Context, asset assetapi.Asset) error
	TriggerCallback(asset assetapi.Asset, content string)
	SetCallback(cb interfaces.SelectionCallback)
	Bind(reporter ErrorReporter)
}

// MaxLengthSetter is implemented by strategies that constrain asset length.
type MaxLengthSetter interface {
	SetMaxLength(n int)
}

// Options configures a strategy variant.
type Options struct {
	Endpoints         URLBuilder
	Selector          Selector
	Destination       string
	AllowedExtensions []string
	Logger            interfaces.Logger
}

type base struct {
	kind      assetapi.Kind
	endpoints URLBuilder
	policy    *ExtensionPolicy
	logger    interfaces.Logger

	mu       sync.RWMutex
	callback interfaces.SelectionCallback
	reporter ErrorReporter
}

func (b *base) init(kind assetapi.Kind, opts Options) {
	b.kind = kind
	b.endpoints = opts.Endpoints
	b.policy = NewExtensionPolicy(opts.AllowedExtensions)
	b.logger = logging.WithFields(logging.Ensure(opts.Logger), map[string]any{"asset_kind": string(kind)})
}

func (b *base) Kind() assetapi.Kind { return b.kind }

func (b *base) BuildURL(query string) (string, error) {
	if b.endpoints == nil {
		return "", errors.New("strategy: endpoints not configured")
	}
	return b.endpoints.List(b.kind, query)
}

func (b *base) IsFit(assetapi.Asset) bool { return true }

func (b *base) IsAllowedExtension(ext string) bool { return b.policy.Allows(ext) }

func (b *base) AllowedExtensions() []string { return b.policy.Allowed() }

func (b *base) ExtensionFilter() string { return b.policy.Filter() }

func (b *base) SetCallback(cb interfaces.SelectionCallback) {
	b.mu.Lock()
	b.callback = cb
	b.mu.Unlock()
}

func (b *base) Bind(reporter ErrorReporter) {
	b.mu.Lock()
	b.reporter = reporter
	b.mu.Unlock()
}

func (b *base) deliver(selection interfaces.AssetSelection) {
	b.mu.RLock()
	cb := b.callback
	b.mu.RUnlock()
	if cb == nil {
		b.logger.Warn("strategy.callback.missing", "asset_id", selection.AssetID)
		return
	}
	cb(selection)
}

func (b *base) report(message string) {
	b.mu.RLock()
	reporter := b.reporter
	b.mu.RUnlock()
	if reporter != nil {
		reporter.ReportError(message)
	}
}

func (b *base) warnIfUnrestricted() {
	if b.policy.Unrestricted() {
		b.logger.Warn("strategy.extensions.unrestricted", "message", "no allowed extensions configured, allowing any "+string(b.kind))
	}
}
