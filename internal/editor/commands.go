package editor

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// cropInset is the fraction of each edge trimmed from the initial selection.
const cropInset = 0.1

// CropCommand attaches a selection overlay and sends the chosen rectangle on
// Apply.
type CropCommand struct {
	editor *Controller

	mu        sync.Mutex
	overlay   interfaces.CropSelection
	selection *interfaces.CropRect
}

func (c *CropCommand) Name() string { return "crop" }

// Execute attaches the selector sized to the true image dimensions and seeds
// a selection inset from every edge. An overlay left by a previous Execute is
// destroyed first.
func (c *CropCommand) Execute(_ context.Context, _ ...any) error {
	c.destroy()
	width, height := c.editor.size()
	overlay, err := c.editor.opts.Crop.Selector.Attach(interfaces.CropSelectionOptions{
		TrueWidth:  width,
		TrueHeight: height,
		OnSelect:   c.onSelect,
		Live:       c.editor.opts.Crop.OnSelect != nil,
	})
	if err != nil {
		return fmt.Errorf("editor: attach crop selector: %w", err)
	}
	c.mu.Lock()
	c.overlay = overlay
	c.mu.Unlock()

	w, h := overlay.Bounds()
	overlay.SetSelection(interfaces.CropRect{
		X1: w * cropInset,
		Y1: h * cropInset,
		X2: w * (1 - cropInset),
		Y2: h * (1 - cropInset),
	})
	return nil
}

func (c *CropCommand) onSelect(rect *interfaces.CropRect) {
	c.mu.Lock()
	if rect == nil {
		c.selection = nil
	} else {
		sel := *rect
		c.selection = &sel
	}
	c.mu.Unlock()
	if fn := c.editor.opts.Crop.OnSelect; fn != nil {
		fn(rect)
	}
}

func (c *CropCommand) setSelection(rect interfaces.CropRect) {
	c.mu.Lock()
	overlay := c.overlay
	c.mu.Unlock()
	if overlay != nil {
		overlay.SetSelection(rect)
	}
}

// Selection returns the current selection, if any.
func (c *CropCommand) Selection() (interfaces.CropRect, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selection == nil {
		return interfaces.CropRect{}, false
	}
	return *c.selection, true
}

// Cancel destroys the overlay and clears the selection.
func (c *CropCommand) Cancel() {
	c.destroy()
	if fn := c.editor.opts.Crop.OnSelect; fn != nil {
		fn(nil)
	}
}

func (c *CropCommand) destroy() {
	c.mu.Lock()
	overlay := c.overlay
	c.overlay = nil
	c.selection = nil
	c.mu.Unlock()
	if overlay != nil {
		overlay.Destroy()
	}
}

// Apply sends the floored selection coordinates as a crop transformation.
func (c *CropCommand) Apply(ctx context.Context) error {
	rect, ok := c.Selection()
	if !ok {
		return ErrNoSelection
	}
	params := map[string]string{
		"x1": floorString(rect.X1),
		"y1": floorString(rect.Y1),
		"x2": floorString(rect.X2),
		"y2": floorString(rect.Y2),
	}
	return c.editor.RequestTransformation(ctx, commands.TransformCrop, params, func(result assetapi.TransformResult) {
		if fn := c.editor.opts.Crop.OnApply; fn != nil {
			fn(result.Src, result.Width, result.Height)
		}
		c.destroy()
		c.editor.commandFinished(c)
	})
}

// GrayscaleCommand previews a grayscale version and restores the original
// source on Cancel.
type GrayscaleCommand struct {
	editor *Controller

	mu       sync.Mutex
	original string
	saved    bool
}

func (g *GrayscaleCommand) Name() string { return "grayscale" }

// Execute requests the grayscale preview. Re-running it while a preview is
// showing keeps the source saved by the first run.
func (g *GrayscaleCommand) Execute(ctx context.Context, _ ...any) error {
	g.mu.Lock()
	if !g.saved {
		g.original = g.editor.source()
		g.saved = true
	}
	g.mu.Unlock()
	return g.editor.RequestTransformation(ctx, commands.TransformGrayscale, nil, func(result assetapi.TransformResult) {
		g.changed(result.Src)
	})
}

// Cancel restores the source saved by Execute.
func (g *GrayscaleCommand) Cancel() {
	g.mu.Lock()
	original, saved := g.original, g.saved
	g.original, g.saved = "", false
	g.mu.Unlock()
	if !saved {
		return
	}
	g.editor.setSource(original)
	g.changed(original)
}

// Apply keeps the grayscale source.
func (g *GrayscaleCommand) Apply(context.Context) error {
	g.mu.Lock()
	saved := g.saved
	g.original, g.saved = "", false
	g.mu.Unlock()
	if !saved {
		return nil
	}
	g.changed(g.editor.source())
	g.editor.commandFinished(g)
	return nil
}

func (g *GrayscaleCommand) changed(src string) {
	if fn := g.editor.opts.Grayscale.OnChange; fn != nil {
		fn(src)
	}
}

// RotateCommand rotates by a stored angle on Apply.
type RotateCommand struct {
	editor *Controller

	mu    sync.Mutex
	angle *int
}

func (r *RotateCommand) Name() string { return "rotate" }

// Execute stores the angle given as the first argument.
func (r *RotateCommand) Execute(_ context.Context, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("editor: rotate requires an angle")
	}
	angle, err := parseAngle(args[0])
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.angle = &angle
	r.mu.Unlock()
	return nil
}

func (r *RotateCommand) Cancel() {
	r.mu.Lock()
	r.angle = nil
	r.mu.Unlock()
}

func (r *RotateCommand) Apply(ctx context.Context) error {
	r.mu.Lock()
	angle := r.angle
	r.angle = nil
	r.mu.Unlock()
	if angle == nil {
		return nil
	}
	params := map[string]string{"angle": strconv.Itoa(*angle)}
	return r.editor.RequestTransformation(ctx, commands.TransformRotate, params, func(result assetapi.TransformResult) {
		if fn := r.editor.opts.Rotate.OnApply; fn != nil {
			fn(result.Src, result.Width, result.Height)
		}
		r.editor.commandFinished(r)
	})
}

// RemoveCommand clears the image locally.
type RemoveCommand struct {
	editor *Controller
}

func (r *RemoveCommand) Name() string                        { return "remove" }
func (r *RemoveCommand) Execute(context.Context, ...any) error { return nil }
func (r *RemoveCommand) Cancel()                             {}

func (r *RemoveCommand) Apply(context.Context) error {
	r.editor.setSource("")
	r.editor.Hide()
	r.editor.commandFinished(r)
	return nil
}

func parseAngle(v any) (int, error) {
	var angle int
	switch value := v.(type) {
	case int:
		angle = value
	case int64:
		angle = int(value)
	case float64:
		angle = int(math.Round(value))
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return 0, fmt.Errorf("editor: invalid angle %q: %w", value, err)
		}
		angle = parsed
	default:
		return 0, fmt.Errorf("editor: invalid angle type %T", v)
	}
	angle %= 360
	if angle < 0 {
		angle += 360
	}
	return angle, nil
}

func floorString(v float64) string {
	return strconv.Itoa(int(math.Floor(v)))
}

var (
	_ Command = (*CropCommand)(nil)
	_ Command = (*GrayscaleCommand)(nil)
	_ Command = (*RotateCommand)(nil)
	_ Command = (*RemoveCommand)(nil)
)
