package assetapi

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeRequestFailed = "ASSET_API_REQUEST_FAILED"
	codeStatus        = "ASSET_API_STATUS"
	codeDecode        = "ASSET_API_DECODE"
	codeEndpoint      = "ASSET_API_ENDPOINT"
)

// ErrInvalidEndpoint reports an asset API URL that could not be built.
var ErrInvalidEndpoint = errors.New("assetapi: invalid endpoint")

// StatusError carries a non-2xx response from an asset API collaborator.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("assetapi: %s %s returned %d", e.Method, e.URL, e.Code)
}

// ResponseText returns the response body, the detail hosts show to users.
func ResponseText(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Body
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func wrapTransport(err error, op string) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, op+" request failed").
		WithTextCode(codeRequestFailed)
}

func wrapStatus(err *StatusError, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("%s returned status %d", op, err.Code)).
		WithTextCode(codeStatus)
}

func wrapDecode(err error, op string) error {
	return goerrors.Wrap(err, goerrors.CategoryExternal, op+" response could not be decoded").
		WithTextCode(codeDecode)
}

func wrapEndpoint(err error, name string) error {
	return goerrors.Wrap(fmt.Errorf("%w: %s: %v", ErrInvalidEndpoint, name, err), goerrors.CategoryValidation, "asset api endpoint").
		WithTextCode(codeEndpoint)
}
