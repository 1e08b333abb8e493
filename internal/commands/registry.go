package commands

import (
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"

	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// Subscription is released to stop dispatching to a handler.
type Subscription interface {
	Unsubscribe()
}

// HandlerSet groups the asset command handlers.
type HandlerSet struct {
	Select    *SelectAssetHandler
	Upload    *UploadAssetHandler
	Transform *TransformImageHandler
}

// RegisterAssetCommands builds the asset command handlers and registers them
// with reg when one is supplied.
func RegisterAssetCommands(reg CommandRegistry, api AssetAPI, provider interfaces.LoggerProvider) (*HandlerSet, error) {
	if api == nil {
		return nil, errors.New("asset command registration: api is nil")
	}

	set := &HandlerSet{
		Select:    NewSelectAssetHandler(api, CommandLogger(provider, "select")),
		Upload:    NewUploadAssetHandler(api, CommandLogger(provider, "upload")),
		Transform: NewTransformImageHandler(api, CommandLogger(provider, "transform")),
	}

	if reg != nil {
		for _, handler := range []any{set.Select, set.Upload, set.Transform} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// Subscribe attaches the handlers to the go-command dispatcher so hosts can
// use dispatcher.Dispatch. Select and transform failures are retried retries
// times; uploads consume their reader and are never retried.
func (s *HandlerSet) Subscribe(retries int) []Subscription {
	if s == nil {
		return nil
	}
	if retries > 0 {
		return []Subscription{
			dispatcher.SubscribeCommand(s.Select, runner.WithMaxRetries(retries)),
			dispatcher.SubscribeCommand(s.Upload),
			dispatcher.SubscribeCommand(s.Transform, runner.WithMaxRetries(retries)),
		}
	}
	return []Subscription{
		dispatcher.SubscribeCommand(s.Select),
		dispatcher.SubscribeCommand(s.Upload),
		dispatcher.SubscribeCommand(s.Transform),
	}
}
