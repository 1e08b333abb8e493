package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to command failures that were not already categorised
// further down (assetapi errors keep their own codes).
const (
	CodeInvalidCommand = "ASSET_COMMAND_INVALID"
	CodeCancelled      = "ASSET_COMMAND_CANCELLED"
	CodeTimedOut       = "ASSET_COMMAND_TIMED_OUT"
	CodeFailed         = "ASSET_COMMAND_FAILED"
)

type failure struct {
	category goerrors.Category
	code     string
	message  string
}

var (
	invalidCommand = failure{goerrors.CategoryValidation, CodeInvalidCommand, "asset command rejected"}
	cancelled      = failure{goerrors.CategoryCommand, CodeCancelled, "asset command cancelled"}
	timedOut       = failure{goerrors.CategoryCommand, CodeTimedOut, "asset command timed out"}
	failed         = failure{goerrors.CategoryCommand, CodeFailed, "asset command failed"}
)

func (f failure) wrap(err error) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, f.category, f.message).WithTextCode(f.code)
}

func wrapValidationError(err error) error { return invalidCommand.wrap(err) }

func wrapExecuteError(err error) error { return failed.wrap(err) }

func wrapContextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return timedOut.wrap(err)
	}
	return cancelled.wrap(err)
}
