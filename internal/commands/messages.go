package commands

import (
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-asset-library/internal/assetapi"
)

const (
	selectAssetMessageType    = "assets.select"
	uploadAssetMessageType    = "assets.upload"
	transformImageMessageType = "assets.images.transform"
)

// Transformations understood by the image transformation service.
const (
	TransformCrop      = "crop"
	TransformGrayscale = "grayscale"
	TransformRotate    = "rotate"
)

// SelectAssetCommand copies an asset into the campaign destination.
type SelectAssetCommand struct {
	Kind        assetapi.Kind
	SelectURL   string
	Destination string
	// OnSuccess receives the server response once the copy exists.
	OnSuccess func(assetapi.SelectResult) `json:"-"`
}

// Type implements command.Message.
func (SelectAssetCommand) Type() string { return selectAssetMessageType }

// AssetKind reports the collection the asset belongs to.
func (m SelectAssetCommand) AssetKind() assetapi.Kind { return m.Kind }

// Validate implements command.Message.
func (m SelectAssetCommand) Validate() error {
	errs := validation.Errors{}
	if !m.Kind.Valid() {
		errs["kind"] = validation.NewError("assets.select.kind_invalid", "must be snippets, images or files")
	}
	if strings.TrimSpace(m.SelectURL) == "" {
		errs["select_url"] = validation.NewError("assets.select.url_required", "is required")
	}
	if strings.TrimSpace(m.Destination) == "" {
		errs["destination"] = validation.NewError("assets.select.destination_required", "is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// UploadAssetCommand uploads one file into the kind collection.
type UploadAssetCommand struct {
	Kind        assetapi.Kind
	Destination string
	FileName    string
	Reader      io.Reader `json:"-"`
	OnSuccess   func(assetapi.UploadResult) `json:"-"`
}

// Type implements command.Message.
func (UploadAssetCommand) Type() string { return uploadAssetMessageType }

func (m UploadAssetCommand) AssetKind() assetapi.Kind { return m.Kind }

// Validate implements command.Message.
func (m UploadAssetCommand) Validate() error {
	errs := validation.Errors{}
	if m.Kind != assetapi.KindImages && m.Kind != assetapi.KindFiles {
		errs["kind"] = validation.NewError("assets.upload.kind_invalid", "must be images or files")
	}
	if strings.TrimSpace(m.FileName) == "" {
		errs["file_name"] = validation.NewError("assets.upload.file_name_required", "is required")
	}
	if m.Reader == nil {
		errs["reader"] = validation.NewError("assets.upload.reader_required", "is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// TransformImageCommand asks the transformation service to edit an image.
type TransformImageCommand struct {
	Src            string
	Transformation string
	Params         map[string]string
	OnSuccess      func(assetapi.TransformResult) `json:"-"`
}

// Type implements command.Message.
func (TransformImageCommand) Type() string { return transformImageMessageType }

func (TransformImageCommand) AssetKind() assetapi.Kind { return assetapi.KindImages }

// Validate implements command.Message.
func (m TransformImageCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Src, validation.Required),
		validation.Field(&m.Transformation, validation.Required, validation.In(TransformCrop, TransformGrayscale, TransformRotate)),
		validation.Field(&m.Params, validation.By(m.paramsForTransformation)),
	)
}

func (m TransformImageCommand) paramsForTransformation(any) error {
	var required []string
	switch m.Transformation {
	case TransformCrop:
		required = []string{"x1", "y1", "x2", "y2"}
	case TransformRotate:
		required = []string{"angle"}
	}
	for _, key := range required {
		if strings.TrimSpace(m.Params[key]) == "" {
			return validation.NewError("assets.transform.param_required", key+" is required for "+m.Transformation)
		}
	}
	return nil
}
