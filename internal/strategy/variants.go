package strategy

import (
	"context"
	"sync"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// Snippet selects text snippets locally, subject to an optional length limit.
type Snippet struct {
	base
	lengthMu  sync.RWMutex
	maxLength int
}

// NewSnippet builds the snippet strategy. Snippets have no extensions.
func NewSnippet(opts Options) *Snippet {
	opts.AllowedExtensions = nil
	s := &Snippet{}
	s.init(assetapi.KindSnippets, opts)
	return s
}

// SetMaxLength limits selectable snippets to n characters. Zero or less
// removes the limit.
func (s *Snippet) SetMaxLength(n int) {
	if n < 0 {
		n = 0
	}
	s.lengthMu.Lock()
	s.maxLength = n
	s.lengthMu.Unlock()
}

// MaxLength returns the current length limit, zero meaning none.
func (s *Snippet) MaxLength() int {
	s.lengthMu.RLock()
	defer s.lengthMu.RUnlock()
	return s.maxLength
}

// IsFit reports whether the snippet fits the current length limit.
func (s *Snippet) IsFit(asset assetapi.Asset) bool {
	limit := s.MaxLength()
	return limit == 0 || asset.TextLength() <= limit
}

// SelectAsset delivers the snippet contents without a network round-trip.
func (s *Snippet) SelectAsset(_ context.Context, asset assetapi.Asset) error {
	if !s.IsFit(asset) {
		s.logger.Debug("strategy.snippet.not_fit", "asset_id", asset.ID, "length", asset.TextLength(), "max_length", s.MaxLength())
		return ErrNotFit
	}
	s.TriggerCallback(asset, asset.Contents)
	return nil
}

// TriggerCallback hands the snippet to the host.
func (s *Snippet) TriggerCallback(asset assetapi.Asset, content string) {
	s.deliver(interfaces.AssetSelection{AssetID: asset.ID, Content: content})
}

// copying is shared by the image and file strategies, which copy the asset
// into the campaign destination before handing it over.
type copying struct {
	base
	selector     Selector
	destination  string
	errorMessage string
	trigger      func(asset assetapi.Asset, content string)
}

func (c *copying) SelectAsset(ctx context.Context, asset assetapi.Asset) error {
	if c.selector == nil {
		c.report(c.errorMessage)
		return ErrNoSelector
	}
	err := c.selector.Execute(ctx, commands.SelectAssetCommand{
		Kind:        c.kind,
		SelectURL:   asset.SelectURL,
		Destination: c.destination,
		OnSuccess: func(result assetapi.SelectResult) {
			selected := asset
			if result.Width > 0 && result.Height > 0 {
				selected.Width, selected.Height = result.Width, result.Height
			}
			c.trigger(selected, result.CampaignCopy)
		},
	})
	if err != nil {
		c.logger.Error("strategy.select.failed", "asset_id", asset.ID, "error", err)
		c.report(c.errorMessage)
		return err
	}
	return nil
}

// Image copies images into the destination and reports their dimensions.
type Image struct {
	copying
}

// NewImage builds the image strategy. A warning is logged once when no
// allowed extensions are configured.
func NewImage(opts Options) *Image {
	img := &Image{}
	img.init(assetapi.KindImages, opts)
	img.selector = opts.Selector
	img.destination = opts.Destination
	img.errorMessage = "Can't select image"
	img.trigger = img.TriggerCallback
	img.warnIfUnrestricted()
	return img
}

// TriggerCallback hands the campaign copy and dimensions to the host.
func (i *Image) TriggerCallback(asset assetapi.Asset, content string) {
	i.deliver(interfaces.AssetSelection{
		AssetID: asset.ID,
		Content: content,
		Width:   asset.Width,
		Height:  asset.Height,
	})
}

// File copies files into the destination.
type File struct {
	copying
}

// NewFile builds the file strategy. A warning is logged once when no allowed
// extensions are configured.
func NewFile(opts Options) *File {
	f := &File{}
	f.init(assetapi.KindFiles, opts)
	f.selector = opts.Selector
	f.destination = opts.Destination
	f.errorMessage = "Can't select file"
	f.trigger = f.TriggerCallback
	f.warnIfUnrestricted()
	return f
}

// TriggerCallback hands the campaign copy to the host.
func (f *File) TriggerCallback(asset assetapi.Asset, content string) {
	f.deliver(interfaces.AssetSelection{AssetID: asset.ID, Content: content})
}

var (
	_ Strategy        = (*Snippet)(nil)
	_ Strategy        = (*Image)(nil)
	_ Strategy        = (*File)(nil)
	_ MaxLengthSetter = (*Snippet)(nil)
)
