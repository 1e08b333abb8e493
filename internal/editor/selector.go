package editor

import (
	"sync"

	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// HeadlessSelector is a CropSelector without an on-screen overlay. Its bounds
// are the true image size and every SetSelection is reported to OnSelect.
type HeadlessSelector struct{}

// Attach satisfies interfaces.CropSelector.
func (HeadlessSelector) Attach(opts interfaces.CropSelectionOptions) (interfaces.CropSelection, error) {
	return &headlessSelection{opts: opts}, nil
}

type headlessSelection struct {
	mu        sync.Mutex
	opts      interfaces.CropSelectionOptions
	destroyed bool
}

func (s *headlessSelection) Bounds() (float64, float64) {
	return float64(s.opts.TrueWidth), float64(s.opts.TrueHeight)
}

func (s *headlessSelection) SetSelection(rect interfaces.CropRect) {
	s.mu.Lock()
	destroyed := s.destroyed
	s.mu.Unlock()
	if destroyed || s.opts.OnSelect == nil {
		return
	}
	rect = clampRect(rect, float64(s.opts.TrueWidth), float64(s.opts.TrueHeight))
	s.opts.OnSelect(&rect)
}

func (s *headlessSelection) Destroy() {
	s.mu.Lock()
	s.destroyed = true
	s.mu.Unlock()
}

func clampRect(rect interfaces.CropRect, width, height float64) interfaces.CropRect {
	clamp := func(v, max float64) float64 {
		if v < 0 {
			return 0
		}
		if max > 0 && v > max {
			return max
		}
		return v
	}
	if rect.X1 > rect.X2 {
		rect.X1, rect.X2 = rect.X2, rect.X1
	}
	if rect.Y1 > rect.Y2 {
		rect.Y1, rect.Y2 = rect.Y2, rect.Y1
	}
	rect.X1, rect.X2 = clamp(rect.X1, width), clamp(rect.X2, width)
	rect.Y1, rect.Y2 = clamp(rect.Y1, height), clamp(rect.Y2, height)
	return rect
}
