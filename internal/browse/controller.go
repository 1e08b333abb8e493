package browse

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

const (
	errFetchAssets = "Can't fetch list of assets from server"
	errFetchTags   = "Can't fetch list of tags from server"

	defaultDebounce = 500 * time.Millisecond
	defaultLimit    = 20
	maxLimit        = 100
	defaultSort     = "name"
)

// ErrStaleResponse marks a fetch whose result was dropped because a newer
// fetch superseded it.
var ErrStaleResponse = errors.New("browse: stale response dropped")

// Status is the coarse view state of a browsing session.
type Status string

const (
	StatusInit      Status = "init"
	StatusNormal    Status = "normal"
	StatusUploading Status = "uploading"
)

// ViewStyle is the display preference of the asset list.
type ViewStyle string

const (
	ViewGrid ViewStyle = "grid"
	ViewList ViewStyle = "list"
)

// AssetService is the catalog API the controller reads from.
type AssetService interface {
	ListAssets(ctx context.Context, listURL string) (*assetapi.ListResponse, error)
	ListTags(ctx context.Context) ([]assetapi.Tag, error)
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	Kind       assetapi.Kind
	Filter     FilterState
	Query      string
	Assets     []assetapi.Asset
	Tags       []assetapi.Tag
	Extensions []string
	NumPages   int
	PageRange  []int
	Loading    bool
	Error      string
	Status     Status
	ViewStyle  ViewStyle
	// Version increases with every state change so observers can discard
	// snapshots delivered out of order.
	Version uint64
}

// NoAssets reports whether the finished listing is empty.
func (s Snapshot) NoAssets() bool {
	return !s.Loading && len(s.Assets) == 0
}

// Observer is notified after every state change.
type Observer func(Snapshot)

// Option customises a Controller.
type Option func(*Controller)

// WithDebounce sets the quiet period before a state change triggers a fetch.
func WithDebounce(delay time.Duration) Option {
	return func(c *Controller) {
		if delay >= 0 {
			c.debounce = delay
		}
	}
}

// WithAfterFunc replaces the timer used by the debouncer.
func WithAfterFunc(after AfterFunc) Option {
	return func(c *Controller) {
		c.after = after
	}
}

// WithPageSize sets the initial page size.
func WithPageSize(limit int) Option {
	return func(c *Controller) {
		if limit >= 1 && limit <= maxLimit {
			c.filter.Limit = limit
		}
	}
}

// WithDefaultSort sets the initial sort key.
func WithDefaultSort(sort string) Option {
	return func(c *Controller) {
		if isSortKey(sort) {
			c.filter.Sort = sort
		}
	}
}

// WithResetPageOnFilterChange toggles returning to page 1 when a filter changes.
func WithResetPageOnFilterChange(reset bool) Option {
	return func(c *Controller) {
		c.resetPage = reset
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Controller) {
		c.logger = logging.Ensure(logger)
	}
}

// WithBaseContext sets the context debounced fetches run under.
func WithBaseContext(ctx context.Context) Option {
	return func(c *Controller) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}

// Controller owns the filter, pagination and result state of one asset kind.
type Controller struct {
	strategy strategy.Strategy
	service  AssetService
	logger   interfaces.Logger
	baseCtx  context.Context

	debounce  time.Duration
	after     AfterFunc
	debouncer *Debouncer
	resetPage bool

	mu             sync.Mutex
	filter         FilterState
	assets         []assetapi.Asset
	tags           []assetapi.Tag
	tagsLoaded     bool
	extensions     []string
	numPages       int
	loading        bool
	errMessage     string
	status         Status
	viewStyle      ViewStyle
	subscribed     bool
	generation     uint64
	cancelInflight context.CancelFunc
	version        uint64
	observers      map[int]Observer
	nextObserver   int
}

// NewController builds a controller for strat backed by service. The
// controller binds itself as the strategy's error reporter.
func NewController(strat strategy.Strategy, service AssetService, opts ...Option) *Controller {
	c := &Controller{
		strategy:  strat,
		service:   service,
		logger:    logging.NoOp(),
		baseCtx:   context.Background(),
		debounce:  defaultDebounce,
		resetPage: true,
		filter: FilterState{
			Sort:  defaultSort,
			Page:  1,
			Limit: defaultLimit,
		},
		loading:   true,
		status:    StatusInit,
		viewStyle: ViewGrid,
		observers: map[int]Observer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.debouncer = NewDebouncer(c.debounce, c.debouncedRefresh, c.after)
	if strat != nil {
		strat.Bind(c)
	}
	return c
}

// Strategy returns the strategy the controller was built with.
func (c *Controller) Strategy() strategy.Strategy {
	return c.strategy
}

// Subscribe registers an observer and returns a function removing it.
func (c *Controller) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}
	c.mu.Lock()
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = observer
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// SetFilter changes one filter field and schedules a debounced fetch. Setting
// a field to its current value does nothing. Page changes follow SetPage.
func (c *Controller) SetFilter(field Field, value string) error {
	if field == FieldPage {
		page, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return filterError(field, "must be a number")
		}
		c.SetPage(page)
		return nil
	}

	value = strings.TrimSpace(value)
	if err := validateFilter(field, value); err != nil {
		return err
	}

	c.mu.Lock()
	next := c.filter
	switch field {
	case FieldSource:
		next.Source = value
	case FieldTag:
		next.Tag = value
	case FieldExtension:
		next.Extension = value
	case FieldSearch:
		next.Search = value
	case FieldSort:
		if value == "" {
			value = defaultSort
		}
		next.Sort = value
	case FieldLimit:
		next.Limit = defaultLimit
		if value != "" {
			next.Limit, _ = strconv.Atoi(value)
		}
	}
	if next == c.filter {
		c.mu.Unlock()
		return nil
	}
	if c.resetPage {
		next.Page = 1
	}
	c.filter = next
	c.scheduleLocked()
	snap := c.changedLocked()
	c.mu.Unlock()

	c.logger.Debug("browse.filter.changed", "field", string(field), "value", value)
	c.notify(snap)
	return nil
}

// SetSource filters by listing source, "" clearing the filter.
func (c *Controller) SetSource(source string) error { return c.SetFilter(FieldSource, source) }

// SetTag filters by tag id, "" clearing the filter.
func (c *Controller) SetTag(tag string) error { return c.SetFilter(FieldTag, tag) }

// SetExtension filters by extension, "" restoring the strategy default.
func (c *Controller) SetExtension(ext string) error { return c.SetFilter(FieldExtension, ext) }

// SetSearch sets the free-text search.
func (c *Controller) SetSearch(search string) error { return c.SetFilter(FieldSearch, search) }

// SetSort sets the sort key.
func (c *Controller) SetSort(sort string) error { return c.SetFilter(FieldSort, sort) }

// SetLimit sets the page size.
func (c *Controller) SetLimit(limit int) error {
	return c.SetFilter(FieldLimit, strconv.Itoa(limit))
}

// SetPage moves to page n when 1 <= n <= NumPages and n differs from the
// current page. Any other value is ignored. It reports whether the page changed.
func (c *Controller) SetPage(n int) bool {
	c.mu.Lock()
	if n < 1 || n > c.numPages || n == c.filter.Page {
		c.mu.Unlock()
		return false
	}
	c.filter.Page = n
	c.scheduleLocked()
	snap := c.changedLocked()
	c.mu.Unlock()

	c.notify(snap)
	return true
}

// IncPage moves to the next page if there is one.
func (c *Controller) IncPage() bool {
	c.mu.Lock()
	page := c.filter.Page
	c.mu.Unlock()
	return c.SetPage(page + 1)
}

// DecPage moves to the previous page if there is one.
func (c *Controller) DecPage() bool {
	c.mu.Lock()
	page := c.filter.Page
	c.mu.Unlock()
	return c.SetPage(page - 1)
}

// SetViewStyle changes the display preference. It does not affect the query.
func (c *Controller) SetViewStyle(style ViewStyle) error {
	if style != ViewGrid && style != ViewList {
		return filterError("view_style", "must be grid or list")
	}
	c.mu.Lock()
	if c.viewStyle == style {
		c.mu.Unlock()
		return nil
	}
	c.viewStyle = style
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

// Prepare opens a browsing session: it enables debounced refreshes, fetches
// the tag list once and performs an immediate refresh. It is safe to call
// again, e.g. when a picker is reopened.
func (c *Controller) Prepare(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	if c.status == StatusInit {
		c.status = StatusNormal
	}
	c.subscribed = true
	needTags := !c.tagsLoaded
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)

	var group errgroup.Group
	if needTags {
		group.Go(func() error { return c.refreshTags(ctx) })
	}
	group.Go(func() error {
		err := c.Refresh(ctx)
		if errors.Is(err, ErrStaleResponse) {
			return nil
		}
		return err
	})
	return group.Wait()
}

// Refresh fetches the current filter state immediately, superseding any
// pending debounced fetch and any fetch still in flight. A superseded fetch
// returns ErrStaleResponse and leaves the state untouched.
func (c *Controller) Refresh(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.debouncer.Cancel()

	c.mu.Lock()
	if c.cancelInflight != nil {
		c.cancelInflight()
	}
	c.generation++
	generation := c.generation
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelInflight = cancel
	query := BuildQuery(c.filter, c.strategy.ExtensionFilter())
	c.loading = true
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)

	defer cancel()
	logger := logging.WithBrowseContext(c.logger, string(c.strategy.Kind()), generation, query)

	resp, err := c.fetch(reqCtx, query)

	c.mu.Lock()
	if generation != c.generation {
		c.mu.Unlock()
		logger.Debug("browse.refresh.stale_dropped")
		return ErrStaleResponse
	}
	c.cancelInflight = nil
	if err != nil {
		c.loading = false
		c.setErrorLocked(errFetchAssets)
		snap = c.changedLocked()
		c.mu.Unlock()
		logger.Warn("browse.refresh.failed", "error", err)
		c.notify(snap)
		return err
	}

	c.applyLocked(resp)
	refetch := c.clampPageLocked()
	if refetch {
		c.scheduleLocked()
	}
	snap = c.changedLocked()
	c.mu.Unlock()

	logger.Debug("browse.refresh.applied", "num_pages", snap.NumPages, "count", len(snap.Assets))
	c.notify(snap)
	return nil
}

// Select commits asset through the strategy.
func (c *Controller) Select(ctx context.Context, asset assetapi.Asset) error {
	if !c.strategy.IsFit(asset) {
		return strategy.ErrNotFit
	}
	return c.strategy.SelectAsset(ctx, asset)
}

// ReportError sets the single visible error and returns to normal status.
func (c *Controller) ReportError(message string) {
	c.mu.Lock()
	c.setErrorLocked(message)
	snap := c.changedLocked()
	c.mu.Unlock()
	c.logger.Info("browse.error.reported", "message", message)
	c.notify(snap)
}

// ClearError removes the visible error.
func (c *Controller) ClearError() {
	c.mu.Lock()
	if c.errMessage == "" {
		c.mu.Unlock()
		return
	}
	c.errMessage = ""
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// SetStatus changes the view status, e.g. to StatusUploading.
func (c *Controller) SetStatus(status Status) {
	c.mu.Lock()
	if c.status == status {
		c.mu.Unlock()
		return
	}
	c.status = status
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
}

// Status returns the current view status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// NoAssets reports whether the finished listing is empty.
func (c *Controller) NoAssets() bool {
	return c.Snapshot().NoAssets()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close drops pending and in-flight fetches.
func (c *Controller) Close() {
	c.debouncer.Cancel()
	c.mu.Lock()
	c.subscribed = false
	if c.cancelInflight != nil {
		c.cancelInflight()
		c.cancelInflight = nil
	}
	c.generation++
	c.mu.Unlock()
}

func (c *Controller) fetch(ctx context.Context, query string) (*assetapi.ListResponse, error) {
	if c.service == nil {
		return nil, errors.New("browse: asset service not configured")
	}
	listURL, err := c.strategy.BuildURL(query)
	if err != nil {
		return nil, err
	}
	resp, err := c.service.ListAssets(ctx, listURL)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("browse: empty listing response")
	}
	return resp, nil
}

func (c *Controller) refreshTags(ctx context.Context) error {
	if c.service == nil {
		return errors.New("browse: asset service not configured")
	}
	tags, err := c.service.ListTags(ctx)

	c.mu.Lock()
	if err != nil {
		c.setErrorLocked(errFetchTags)
		snap := c.changedLocked()
		c.mu.Unlock()
		c.logger.Warn("browse.tags.failed", "error", err)
		c.notify(snap)
		return err
	}
	c.tags = append([]assetapi.Tag(nil), tags...)
	c.tagsLoaded = true
	snap := c.changedLocked()
	c.mu.Unlock()
	c.notify(snap)
	return nil
}

func (c *Controller) debouncedRefresh() {
	err := c.Refresh(c.baseCtx)
	if err != nil && !errors.Is(err, ErrStaleResponse) {
		c.logger.Debug("browse.refresh.debounced_failed", "error", err)
	}
}

// scheduleLocked supersedes any fetch in flight, so its response is dropped
// when it arrives, and arms the debouncer once a session has been prepared.
func (c *Controller) scheduleLocked() {
	superseded := c.cancelInflight != nil
	if superseded {
		c.cancelInflight()
		c.cancelInflight = nil
	}
	c.generation++
	if !c.subscribed {
		if superseded {
			c.loading = false
		}
		return
	}
	c.loading = true
	c.debouncer.Trigger()
}

func (c *Controller) applyLocked(resp *assetapi.ListResponse) {
	c.assets = append([]assetapi.Asset(nil), resp.Objects...)
	if resp.Meta.Extensions != nil {
		c.extensions = append([]string(nil), resp.Meta.Extensions...)
	}
	if resp.Meta.Page >= 1 {
		c.filter.Page = resp.Meta.Page
	}
	c.numPages = max(resp.Meta.NumPages, 0)
	c.loading = false
	if c.errMessage == errFetchAssets {
		c.errMessage = ""
	}
}

// clampPageLocked keeps the page within [1, numPages] and reports whether it
// moved to a page that has not been fetched.
func (c *Controller) clampPageLocked() bool {
	switch {
	case c.numPages == 0:
		c.filter.Page = 1
		return false
	case c.filter.Page > c.numPages:
		c.filter.Page = c.numPages
		return true
	case c.filter.Page < 1:
		c.filter.Page = 1
		return true
	}
	return false
}

func (c *Controller) setErrorLocked(message string) {
	c.errMessage = message
	c.status = StatusNormal
}

func (c *Controller) changedLocked() Snapshot {
	c.version++
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Kind:       c.strategy.Kind(),
		Filter:     c.filter,
		Query:      BuildQuery(c.filter, c.strategy.ExtensionFilter()),
		Assets:     append([]assetapi.Asset(nil), c.assets...),
		Tags:       append([]assetapi.Tag(nil), c.tags...),
		Extensions: append([]string(nil), c.extensions...),
		NumPages:   c.numPages,
		PageRange:  PageRange(c.numPages),
		Loading:    c.loading,
		Error:      c.errMessage,
		Status:     c.status,
		ViewStyle:  c.viewStyle,
		Version:    c.version,
	}
}

func (c *Controller) notify(snap Snapshot) {
	c.mu.Lock()
	observers := make([]Observer, 0, len(c.observers))
	for id := 0; id < c.nextObserver; id++ {
		if observer, ok := c.observers[id]; ok {
			observers = append(observers, observer)
		}
	}
	c.mu.Unlock()
	for _, observer := range observers {
		observer(snap)
	}
}

func validateFilter(field Field, value string) error {
	var rule validation.Rule
	switch field {
	case FieldSource:
		rule = validation.In(SourcePersonal, SourceGlobal)
	case FieldSort:
		rule = validation.In("name", "newest_first", "oldest_first")
	case FieldLimit:
		rule = validation.By(func(any) error {
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 1 || limit > maxLimit {
				return validation.NewError("assets.browse.limit_invalid", fmt.Sprintf("must be between 1 and %d", maxLimit))
			}
			return nil
		})
	case FieldTag, FieldExtension, FieldSearch:
		return nil
	default:
		return filterError(field, "is not a filter field")
	}
	if value == "" {
		return nil
	}
	if err := validation.Validate(value, rule); err != nil {
		return filterError(field, err.Error())
	}
	return nil
}

func filterError(field Field, message string) error {
	errs := validation.Errors{string(field): errors.New(message)}
	return goerrors.Wrap(errs, goerrors.CategoryValidation, "invalid browse filter").
		WithTextCode("ASSET_FILTER_INVALID")
}

func isSortKey(sort string) bool {
	switch sort {
	case "name", "newest_first", "oldest_first":
		return true
	}
	return false
}
