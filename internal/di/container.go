package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/internal/editor"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/internal/logging/console"
	"github.com/goliatone/go-asset-library/internal/logging/gologger"
	"github.com/goliatone/go-asset-library/internal/runtimeconfig"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/internal/upload"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// Picker bundles the strategy, browsing controller and optional upload
// workflow of one asset kind.
type Picker struct {
	Kind     assetapi.Kind
	Strategy strategy.Strategy
	Browser  *browse.Controller
	// Upload is nil for snippets.
	Upload *upload.Workflow
}

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	httpClient *http.Client
	tracer     trace.Tracer
	endpoints  *assetapi.Endpoints
	client     *assetapi.Client

	registry      commands.CommandRegistry
	dispatch      bool
	retries       int
	handlers      *commands.HandlerSet
	subscriptions []commands.Subscription

	notifier     interfaces.Notifier
	liveProof    interfaces.LiveProof
	cropSelector interfaces.CropSelector
	afterFunc    browse.AfterFunc
	baseCtx      context.Context

	pickers map[assetapi.Kind]*Picker

	closeOnce sync.Once
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Container) {
		c.httpClient = hc
	}
}

// WithTracer overrides the tracer used for API calls and commands.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		c.tracer = tracer
	}
}

// WithCommandRegistry registers the asset command handlers with reg.
func WithCommandRegistry(reg commands.CommandRegistry) Option {
	return func(c *Container) {
		c.registry = reg
	}
}

// WithDispatcher subscribes the command handlers to the go-command
// dispatcher. Select and transform are retried retries times.
func WithDispatcher(retries int) Option {
	return func(c *Container) {
		c.dispatch = true
		if retries > 0 {
			c.retries = retries
		}
	}
}

// WithNotifier sets the host notification channel used by image editors.
func WithNotifier(n interfaces.Notifier) Option {
	return func(c *Container) {
		c.notifier = n
	}
}

// WithLiveProof sets the live proof hook used by image editors.
func WithLiveProof(lp interfaces.LiveProof) Option {
	return func(c *Container) {
		c.liveProof = lp
	}
}

// WithCropSelector overrides the headless crop selector.
func WithCropSelector(sel interfaces.CropSelector) Option {
	return func(c *Container) {
		c.cropSelector = sel
	}
}

// WithAfterFunc overrides the timer used to debounce catalog refreshes.
func WithAfterFunc(after browse.AfterFunc) Option {
	return func(c *Container) {
		c.afterFunc = after
	}
}

// WithBaseContext sets the context debounced refreshes run under.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Container) {
		c.baseCtx = ctx
	}
}

// NewContainer validates cfg and wires the API client, command handlers and
// one picker per enabled asset kind.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:  cfg,
		pickers: map[assetapi.Kind]*Picker{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureClient(); err != nil {
		return nil, err
	}
	if err := c.configureCommands(); err != nil {
		return nil, err
	}
	if err := c.configurePickers(); err != nil {
		return nil, err
	}

	c.logger.Info("assets.container.ready",
		"kinds", c.kindNames(),
		"asset_root", cfg.AssetRoot(),
		"dispatcher", c.dispatch,
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
			})
			if err != nil {
				return err
			}
			c.loggerProvider = provider
		default:
			opts := console.Options{}
			if level, ok := console.ParseLevel(cfg.Level); ok {
				opts.MinLevel = &level
			}
			c.loggerProvider = console.NewProvider(opts)
		}
	}
	c.logger = logging.RootLogger(c.loggerProvider)
	return nil
}

func (c *Container) configureClient() error {
	endpoints, err := assetapi.NewEndpoints(c.Config.Origin, c.Config.AssetRoot(), c.Config.APIBase())
	if err != nil {
		return err
	}
	c.endpoints = endpoints

	clientOpts := []assetapi.ClientOption{
		assetapi.WithCSRF(c.Config.CSRF.CookieName, c.Config.CSRF.HeaderName),
		assetapi.WithLogger(logging.APILogger(c.loggerProvider)),
	}
	if c.httpClient != nil {
		clientOpts = append(clientOpts, assetapi.WithHTTPClient(c.httpClient))
	}
	if c.Config.HTTP.Timeout > 0 {
		clientOpts = append(clientOpts, assetapi.WithTimeout(c.Config.HTTP.Timeout))
	}
	if c.tracer != nil {
		clientOpts = append(clientOpts, assetapi.WithTracer(c.tracer))
	}

	client, err := assetapi.NewClient(endpoints, clientOpts...)
	if err != nil {
		return err
	}
	if token := strings.TrimSpace(c.Config.CSRF.Token); token != "" {
		tagsURL, err := endpoints.Tags()
		if err != nil {
			return err
		}
		if err := client.SeedCSRFToken(tagsURL, token); err != nil {
			return fmt.Errorf("seed csrf token: %w", err)
		}
	}
	c.client = client
	return nil
}

func (c *Container) configureCommands() error {
	handlers, err := commands.RegisterAssetCommands(c.registry, c.client, c.loggerProvider)
	if err != nil {
		return err
	}
	c.handlers = handlers
	if c.dispatch {
		c.subscriptions = handlers.Subscribe(c.retries)
	}
	return nil
}

func (c *Container) configurePickers() error {
	kinds := c.Config.Kinds
	if kinds.Snippets {
		if err := c.addPicker(assetapi.KindSnippets, nil); err != nil {
			return err
		}
	}
	if kinds.Images {
		if err := c.addPicker(assetapi.KindImages, c.Config.AllowedImageExtensions); err != nil {
			return err
		}
	}
	if kinds.Files {
		if err := c.addPicker(assetapi.KindFiles, c.Config.AllowedFileExtensions); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) addPicker(kind assetapi.Kind, allowed []string) error {
	stratOpts := strategy.Options{
		Endpoints:         c.endpoints,
		Selector:          c.handlers.Select,
		Destination:       c.Config.Destination,
		AllowedExtensions: allowed,
		Logger:            logging.ModuleLogger(c.loggerProvider, "assets.strategy."+kind.String()),
	}

	var strat strategy.Strategy
	switch kind {
	case assetapi.KindSnippets:
		strat = strategy.NewSnippet(stratOpts)
	case assetapi.KindImages:
		strat = strategy.NewImage(stratOpts)
	case assetapi.KindFiles:
		strat = strategy.NewFile(stratOpts)
	default:
		return fmt.Errorf("di: unsupported asset kind %q", kind)
	}

	browseOpts := []browse.Option{
		browse.WithDebounce(c.Config.Browse.Debounce),
		browse.WithPageSize(c.Config.Browse.PageSize),
		browse.WithDefaultSort(c.Config.Browse.DefaultSort),
		browse.WithResetPageOnFilterChange(c.Config.Browse.ResetPageOnFilterChange),
		browse.WithLogger(logging.BrowseLogger(c.loggerProvider)),
	}
	if c.afterFunc != nil {
		browseOpts = append(browseOpts, browse.WithAfterFunc(c.afterFunc))
	}
	if c.baseCtx != nil {
		browseOpts = append(browseOpts, browse.WithBaseContext(c.baseCtx))
	}
	browser := browse.NewController(strat, c.client, browseOpts...)

	picker := &Picker{Kind: kind, Strategy: strat, Browser: browser}
	if kind != assetapi.KindSnippets {
		workflow, err := upload.NewWorkflow(strat, c.handlers.Upload, browser, c.Config.Destination,
			upload.WithLogger(logging.UploadLogger(c.loggerProvider)),
		)
		if err != nil {
			return err
		}
		picker.Upload = workflow
	}
	c.pickers[kind] = picker
	return nil
}

// Picker returns the picker of kind when it is enabled.
func (c *Container) Picker(kind assetapi.Kind) (*Picker, bool) {
	picker, ok := c.pickers[kind]
	return picker, ok
}

// NewImageEditor builds an image editor for src. Unset options fall back to
// the editor config and the container's notifier, live proof and selector.
func (c *Container) NewImageEditor(src string, width, height int, opts editor.Options) *editor.Controller {
	cfg := c.Config.Editor
	if opts.Crop.MinWidth == 0 && opts.Crop.MinHeight == 0 {
		opts.Crop.MinWidth = cfg.CropMinWidth
		opts.Crop.MinHeight = cfg.CropMinHeight
	}
	if opts.Crop.Selector == nil {
		opts.Crop.Selector = c.cropSelector
	}
	opts.EnableLiveProof = opts.EnableLiveProof || cfg.EnableLiveProof
	opts.EnableRemove = opts.EnableRemove || cfg.EnableRemove
	if opts.LiveProof == nil {
		opts.LiveProof = c.liveProof
	}
	if opts.Notifier == nil {
		opts.Notifier = c.notifier
	}
	if opts.Logger == nil {
		opts.Logger = logging.EditorLogger(c.loggerProvider)
	}

	ctrl := editor.NewController(src, c.handlers.Transform, opts)
	ctrl.Init(width, height)
	return ctrl
}

// Client exposes the asset API client.
func (c *Container) Client() *assetapi.Client {
	return c.client
}

// Handlers exposes the asset command handlers.
func (c *Container) Handlers() *commands.HandlerSet {
	return c.handlers
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Close stops pending refreshes and releases dispatcher subscriptions.
func (c *Container) Close() {
	c.closeOnce.Do(func() {
		for _, picker := range c.pickers {
			picker.Browser.Close()
		}
		for _, sub := range c.subscriptions {
			if sub != nil {
				sub.Unsubscribe()
			}
		}
		c.subscriptions = nil
	})
}

func (c *Container) kindNames() []string {
	names := make([]string, 0, len(c.pickers))
	for _, kind := range []assetapi.Kind{assetapi.KindSnippets, assetapi.KindImages, assetapi.KindFiles} {
		if _, ok := c.pickers[kind]; ok {
			names = append(names, kind.String())
		}
	}
	return names
}
