package editor

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

var (
	// ErrNoSelection reports a crop applied without a selection.
	ErrNoSelection = errors.New("editor: no crop selection")
	// ErrNoActiveCommand reports Apply or SelectCrop without an active command.
	ErrNoActiveCommand = errors.New("editor: no active command")
	// ErrRemoveDisabled reports Remove on an editor built without it.
	ErrRemoveDisabled = errors.New("editor: remove is disabled")
)

// Transformer executes image transformation commands.
type Transformer interface {
	Execute(ctx context.Context, msg commands.TransformImageCommand) error
}

// Command is a reusable execute/cancel/apply edit state machine. Cancel and
// Apply must be safe without a preceding Execute.
type Command interface {
	Name() string
	Execute(ctx context.Context, args ...any) error
	Cancel()
	Apply(ctx context.Context) error
}

// CropOptions configures the crop command.
type CropOptions struct {
	// MinWidth and MinHeight gate crop eligibility; zero disables the gate.
	MinWidth  int
	MinHeight int
	Selector  interfaces.CropSelector
	OnSelect  func(rect *interfaces.CropRect)
	OnApply   func(src string, width, height int)
}

// GrayscaleOptions configures the grayscale command.
type GrayscaleOptions struct {
	OnChange func(src string)
}

// RotateOptions configures the rotate command.
type RotateOptions struct {
	OnApply func(src string, width, height int)
}

// Options configures a Controller.
type Options struct {
	Crop            CropOptions
	Grayscale       GrayscaleOptions
	Rotate          RotateOptions
	EnableLiveProof bool
	EnableRemove    bool
	LiveProof       interfaces.LiveProof
	Notifier        interfaces.Notifier
	Logger          interfaces.Logger
}

// State is a copy of the editor state for rendering.
type State struct {
	Src       string
	Width     int
	Height    int
	Ready     bool
	Croppable bool
	Visible   bool
	Loading   bool
	// Active names the command awaiting Apply or Cancel, if any.
	Active string
}

// Changed reports whether an edit awaits confirmation.
func (s State) Changed() bool { return s.Active != "" }

// Controller owns one image, its dimensions and the single active edit.
// Commands are created once and reused.
type Controller struct {
	transformer Transformer
	opts        Options
	logger      interfaces.Logger

	crop      *CropCommand
	grayscale *GrayscaleCommand
	rotate    *RotateCommand
	remove    *RemoveCommand

	mu        sync.Mutex
	src       string
	width     int
	height    int
	ready     bool
	croppable bool
	visible   bool
	loading   bool
	current   Command
	observers []func(State)
}

// NewController builds an editor for the image at src.
func NewController(src string, transformer Transformer, opts Options) *Controller {
	c := &Controller{
		transformer: transformer,
		opts:        opts,
		logger:      logging.Ensure(opts.Logger),
		src:         src,
		croppable:   true,
	}
	if c.opts.Crop.Selector == nil {
		c.opts.Crop.Selector = HeadlessSelector{}
	}
	c.crop = &CropCommand{editor: c}
	c.grayscale = &GrayscaleCommand{editor: c}
	c.rotate = &RotateCommand{editor: c}
	c.remove = &RemoveCommand{editor: c}
	return c
}

// Init prepares the editor for new image dimensions: any active command is
// cancelled, crop eligibility recomputed and the image shown.
func (c *Controller) Init(width, height int) {
	c.mu.Lock()
	c.width, c.height = width, height
	c.mu.Unlock()

	c.Cancel()

	c.mu.Lock()
	c.croppable = c.canBeCroppedLocked()
	c.visible = true
	c.ready = true
	c.mu.Unlock()
	c.changed()
}

// Load swaps in a new image source and calls Init.
func (c *Controller) Load(src string, width, height int) {
	c.mu.Lock()
	c.src = src
	c.mu.Unlock()
	c.Init(width, height)
}

// Hide hides the image and marks the editor not ready.
func (c *Controller) Hide() {
	c.mu.Lock()
	c.visible = false
	c.ready = false
	c.mu.Unlock()
	c.changed()
}

// RunCommand makes cmd the running edit. A different active command is
// cancelled first. When hold is true cmd waits for Apply or Cancel,
// otherwise it is applied at once.
func (c *Controller) RunCommand(ctx context.Context, cmd Command, hold bool, args ...any) error {
	if cmd == nil {
		return nil
	}
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current != cmd {
		c.Cancel()
	}

	if err := cmd.Execute(ctx, args...); err != nil {
		cmd.Cancel()
		c.logger.Warn("editor.command.execute_failed", "command", cmd.Name(), "error", err)
		return err
	}

	if hold {
		c.mu.Lock()
		c.current = cmd
		c.mu.Unlock()
		c.logger.Debug("editor.command.active", "command", cmd.Name())
		c.changed()
		return nil
	}
	return cmd.Apply(ctx)
}

// Apply commits the active command.
func (c *Controller) Apply(ctx context.Context) error {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current == nil {
		return ErrNoActiveCommand
	}
	return current.Apply(ctx)
}

// Cancel rolls back the active command locally.
func (c *Controller) Cancel() {
	c.mu.Lock()
	current := c.current
	c.current = nil
	c.mu.Unlock()
	if current == nil {
		return
	}
	current.Cancel()
	c.logger.Debug("editor.command.cancelled", "command", current.Name())
	c.changed()
}

// Crop starts an interactive crop awaiting Apply.
func (c *Controller) Crop(ctx context.Context) error {
	return c.RunCommand(ctx, c.crop, true)
}

// SelectCrop moves the active crop selection.
func (c *Controller) SelectCrop(rect interfaces.CropRect) error {
	c.mu.Lock()
	active := c.current == Command(c.crop)
	c.mu.Unlock()
	if !active {
		return ErrNoActiveCommand
	}
	c.crop.setSelection(rect)
	return nil
}

// Grayscale previews a grayscale conversion awaiting Apply.
func (c *Controller) Grayscale(ctx context.Context) error {
	return c.RunCommand(ctx, c.grayscale, true)
}

// Rotate rotates the image by angle degrees immediately.
func (c *Controller) Rotate(ctx context.Context, angle int) error {
	return c.RunCommand(ctx, c.rotate, false, angle)
}

// Remove clears the image immediately.
func (c *Controller) Remove(ctx context.Context) error {
	if !c.opts.EnableRemove {
		return ErrRemoveDisabled
	}
	return c.RunCommand(ctx, c.remove, false)
}

// RequestTransformation sends the current image source with transformation
// and params. On success the image state is replaced and onSuccess invoked.
// On failure the error is published to the notifier and the active command
// is cancelled.
func (c *Controller) RequestTransformation(ctx context.Context, transformation string, params map[string]string, onSuccess func(assetapi.TransformResult)) error {
	if c.transformer == nil {
		return errors.New("editor: transformer not configured")
	}
	c.mu.Lock()
	c.ready = false
	c.loading = true
	src := c.src
	c.mu.Unlock()
	c.changed()

	logger := logging.WithFields(c.logger, map[string]any{"transformation": transformation})
	err := c.transformer.Execute(ctx, commands.TransformImageCommand{
		Src:            src,
		Transformation: transformation,
		Params:         params,
		OnSuccess: func(result assetapi.TransformResult) {
			c.mu.Lock()
			c.src = result.Src
			c.width, c.height = result.Width, result.Height
			c.croppable = c.canBeCroppedLocked()
			c.mu.Unlock()

			if onSuccess != nil {
				onSuccess(result)
			}

			c.mu.Lock()
			c.ready = true
			c.loading = false
			c.mu.Unlock()
			c.changed()
		},
	})
	if err != nil {
		logger.Error("editor.transformation.failed", "error", err)
		c.notify(interfaces.NotificationError, "Image editor error: "+assetapi.ResponseText(err))
		c.Cancel()
		c.mu.Lock()
		c.ready = true
		c.loading = false
		c.mu.Unlock()
		c.changed()
		return err
	}
	logger.Debug("editor.transformation.applied")
	return nil
}

// State returns a copy of the editor state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Changed reports whether an edit awaits confirmation.
func (c *Controller) Changed() bool { return c.State().Changed() }

// Ready reports whether the editor accepts commands.
func (c *Controller) Ready() bool { return c.State().Ready }

// Croppable reports whether the image is large enough to crop.
func (c *Controller) Croppable() bool { return c.State().Croppable }

// Visible reports whether the image is shown.
func (c *Controller) Visible() bool { return c.State().Visible }

// RemoveEnabled reports whether Remove is offered.
func (c *Controller) RemoveEnabled() bool { return c.opts.EnableRemove }

// Subscribe registers fn for state changes.
func (c *Controller) Subscribe(fn func(State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// commandFinished runs after a command has been applied.
func (c *Controller) commandFinished(cmd Command) {
	if c.opts.EnableLiveProof && c.opts.LiveProof != nil {
		c.opts.LiveProof.RequestLiveProof()
	}
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	c.logger.Info("editor.command.applied", "command", cmd.Name())
	c.changed()
}

func (c *Controller) setSource(src string) {
	c.mu.Lock()
	c.src = src
	c.mu.Unlock()
	c.changed()
}

func (c *Controller) source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.src
}

func (c *Controller) size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *Controller) canBeCroppedLocked() bool {
	minW, minH := c.opts.Crop.MinWidth, c.opts.Crop.MinHeight
	if minW <= 0 && minH <= 0 {
		return true
	}
	return c.width > minW && c.height > minH
}

func (c *Controller) stateLocked() State {
	state := State{
		Src:       c.src,
		Width:     c.width,
		Height:    c.height,
		Ready:     c.ready,
		Croppable: c.croppable,
		Visible:   c.visible,
		Loading:   c.loading,
	}
	if c.current != nil {
		state.Active = c.current.Name()
	}
	return state
}

func (c *Controller) changed() {
	c.mu.Lock()
	state := c.stateLocked()
	observers := slices.Clone(c.observers)
	c.mu.Unlock()
	for _, fn := range observers {
		fn(state)
	}
}

func (c *Controller) notify(level interfaces.NotificationLevel, message string) {
	if c.opts.Notifier != nil {
		c.opts.Notifier.Notify(level, message)
	}
}
