package interfaces

// CropRect holds selection coordinates in image pixels. Values are the
// top-left (X1, Y1) and bottom-right (X2, Y2) corners.
type CropRect struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// CropSelectionOptions are handed to a CropSelector when an interactive
// selection is attached to the image.
type CropSelectionOptions struct {
	// TrueWidth and TrueHeight are the natural image dimensions so the
	// selector can translate display coordinates back to pixels.
	TrueWidth  int
	TrueHeight int
	// OnSelect receives every selection change. A nil rect means the
	// selection was cleared.
	OnSelect func(rect *CropRect)
	// Live requests change notifications while the selection is dragged,
	// not only when it is released.
	Live bool
}

// CropSelection is an attached interactive selection overlay.
type CropSelection interface {
	// Bounds reports the displayed image bounds (width, height).
	Bounds() (float64, float64)
	// SetSelection programmatically moves the selection.
	SetSelection(rect CropRect)
	// Destroy removes the overlay.
	Destroy()
}

// CropSelector produces interactive crop selections. The asset library only
// consumes the coordinates it reports; drawing the overlay is up to the host.
type CropSelector interface {
	Attach(opts CropSelectionOptions) (CropSelection, error)
}

// AssetSelection is delivered to the host once an asset has been chosen and,
// for images and files, copied into the campaign destination.
type AssetSelection struct {
	AssetID int64
	// Content is the campaign copy path for images and files, or the text of
	// a snippet.
	Content string
	Width   int
	Height  int
}

// SelectionCallback receives completed selections.
type SelectionCallback func(AssetSelection)
