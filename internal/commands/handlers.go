package commands

import (
	"context"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/util"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// AssetAPI is the subset of the asset API client the command handlers use.
type AssetAPI interface {
	SelectAsset(ctx context.Context, selectURL, destination string) (*assetapi.SelectResult, error)
	Upload(ctx context.Context, kind assetapi.Kind, destination string, file assetapi.UploadFile) (*assetapi.UploadResult, error)
	Transform(ctx context.Context, req assetapi.TransformRequest) (*assetapi.TransformResult, error)
}

// SelectAssetHandler executes SelectAssetCommand messages.
type SelectAssetHandler = Handler[SelectAssetCommand]

// UploadAssetHandler executes UploadAssetCommand messages.
type UploadAssetHandler = Handler[UploadAssetCommand]

// TransformImageHandler executes TransformImageCommand messages.
type TransformImageHandler = Handler[TransformImageCommand]

// NewSelectAssetHandler builds the selection handler.
func NewSelectAssetHandler(api AssetAPI, logger interfaces.Logger, opts ...HandlerOption[SelectAssetCommand]) *SelectAssetHandler {
	base := []HandlerOption[SelectAssetCommand]{
		WithLogger[SelectAssetCommand](logger),
		WithOperation[SelectAssetCommand]("assets.select"),
	}
	return NewHandler(func(ctx context.Context, msg SelectAssetCommand) error {
		result, err := api.SelectAsset(ctx, msg.SelectURL, msg.Destination)
		if err != nil {
			return err
		}
		if msg.OnSuccess != nil {
			msg.OnSuccess(*result)
		}
		return nil
	}, append(base, opts...)...)
}

// NewUploadAssetHandler builds the upload handler.
func NewUploadAssetHandler(api AssetAPI, logger interfaces.Logger, opts ...HandlerOption[UploadAssetCommand]) *UploadAssetHandler {
	base := []HandlerOption[UploadAssetCommand]{
		WithLogger[UploadAssetCommand](logger),
		WithOperation[UploadAssetCommand]("assets.upload"),
	}
	return NewHandler(func(ctx context.Context, msg UploadAssetCommand) error {
		result, err := api.Upload(ctx, msg.Kind, msg.Destination, assetapi.UploadFile{
			Name:   msg.FileName,
			Reader: msg.Reader,
		})
		if err != nil {
			return err
		}
		if msg.OnSuccess != nil {
			msg.OnSuccess(*result)
		}
		return nil
	}, append(base, opts...)...)
}

// NewTransformImageHandler builds the image transformation handler.
func NewTransformImageHandler(api AssetAPI, logger interfaces.Logger, opts ...HandlerOption[TransformImageCommand]) *TransformImageHandler {
	base := []HandlerOption[TransformImageCommand]{
		WithLogger[TransformImageCommand](logger),
		WithOperation[TransformImageCommand]("assets.images.transform"),
	}
	return NewHandler(func(ctx context.Context, msg TransformImageCommand) error {
		result, err := api.Transform(ctx, assetapi.TransformRequest{
			Src:            msg.Src,
			Transformation: msg.Transformation,
			Params:         util.CloneStringMap(msg.Params),
		})
		if err != nil {
			return err
		}
		if msg.OnSuccess != nil {
			msg.OnSuccess(*result)
		}
		return nil
	}, append(base, opts...)...)
}
