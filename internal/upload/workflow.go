package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/browse"
	"github.com/goliatone/go-asset-library/internal/commands"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/internal/strategy"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

const errUploadFailed = "Oops, can't upload the file"

var (
	// ErrNoFile reports an empty file selection.
	ErrNoFile = errors.New("upload: no file selected")
	// ErrUnsupportedKind reports a workflow built for a kind without uploads.
	ErrUnsupportedKind = errors.New("upload: asset kind does not accept uploads")
)

// File is a file chosen for upload.
type File struct {
	Name   string
	Reader io.Reader
}

// Uploader executes upload commands.
type Uploader interface {
	Execute(ctx context.Context, msg commands.UploadAssetCommand) error
}

// StatusSink receives status transitions and user-visible errors; the
// browsing controller of the same kind implements it.
type StatusSink interface {
	SetStatus(status browse.Status)
	ReportError(message string)
}

// Option customises a Workflow.
type Option func(*Workflow)

// WithLogger sets the workflow logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(w *Workflow) {
		w.logger = logging.Ensure(logger)
	}
}

// Workflow validates and uploads one file at a time and routes the result
// through the strategy callback, like a catalog selection.
type Workflow struct {
	strategy    strategy.Strategy
	uploader    Uploader
	sink        StatusSink
	destination string
	logger      interfaces.Logger
}

// NewWorkflow builds an upload workflow for an image or file strategy.
func NewWorkflow(strat strategy.Strategy, uploader Uploader, sink StatusSink, destination string, opts ...Option) (*Workflow, error) {
	if strat == nil || (strat.Kind() != assetapi.KindImages && strat.Kind() != assetapi.KindFiles) {
		return nil, ErrUnsupportedKind
	}
	if uploader == nil {
		return nil, errors.New("upload: uploader is nil")
	}
	w := &Workflow{
		strategy:    strat,
		uploader:    uploader,
		sink:        sink,
		destination: destination,
		logger:      logging.NoOp(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Add validates the first file and, when its extension is allowed, uploads
// it immediately. Any further files are rejected.
func (w *Workflow) Add(ctx context.Context, files ...File) error {
	if len(files) == 0 {
		return ErrNoFile
	}
	if len(files) > 1 {
		rejected := make([]string, 0, len(files)-1)
		for _, extra := range files[1:] {
			rejected = append(rejected, extra.Name)
		}
		w.logger.Warn("upload.extra_files_rejected", "files", rejected)
	}
	file := files[0]

	if err := w.Validate(file.Name); err != nil {
		w.report(err.Error())
		return goerrors.Wrap(err, goerrors.CategoryValidation, "upload rejected").
			WithTextCode("ASSET_UPLOAD_EXTENSION")
	}

	w.setStatus(browse.StatusUploading)
	logger := logging.WithFields(w.logger, map[string]any{
		"asset_kind": string(w.strategy.Kind()),
		"file":       file.Name,
	})
	logger.Info("upload.started")

	err := w.uploader.Execute(ctx, commands.UploadAssetCommand{
		Kind:        w.strategy.Kind(),
		Destination: w.destination,
		FileName:    file.Name,
		Reader:      file.Reader,
		OnSuccess: func(result assetapi.UploadResult) {
			w.strategy.TriggerCallback(result.Object, result.CampaignCopy)
			w.setStatus(browse.StatusNormal)
		},
	})
	if err != nil {
		logger.Error("upload.failed", "error", err)
		w.setStatus(browse.StatusNormal)
		w.report(errUploadFailed)
		return err
	}
	logger.Info("upload.completed")
	return nil
}

// Validate checks name against the strategy allow-list.
func (w *Workflow) Validate(name string) error {
	ext := strategy.ExtensionOf(name)
	if w.strategy.IsAllowedExtension(ext) {
		return nil
	}
	return &ExtensionError{Extension: ext, Allowed: w.strategy.AllowedExtensions()}
}

func (w *Workflow) report(message string) {
	if w.sink != nil {
		w.sink.ReportError(message)
	}
}

func (w *Workflow) setStatus(status browse.Status) {
	if w.sink != nil {
		w.sink.SetStatus(status)
	}
}

// ExtensionError describes a rejected upload.
type ExtensionError struct {
	Extension string
	Allowed   []string
}

func (e *ExtensionError) Error() string {
	return fmt.Sprintf("Files with extension %s are not allowed. Use one of the following file types: %s",
		e.Extension, strings.Join(e.Allowed, ", "))
}

// Unwrap lets errors.Is match strategy.ErrExtensionNotAllowed.
func (e *ExtensionError) Unwrap() error {
	return strategy.ErrExtensionNotAllowed
}
