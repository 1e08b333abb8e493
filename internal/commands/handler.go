package commands

import (
	"context"
	"errors"
	"time"

	command "github.com/goliatone/go-command"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-asset-library/internal/assetapi"
	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
)

// DefaultCommandTimeout bounds a single asset command, request included.
const DefaultCommandTimeout = 30 * time.Second

const tracerName = "github.com/goliatone/go-asset-library/internal/commands"

// HandlerOption configures a Handler instance.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler wraps an asset command with validation, timeout, logging, tracing
// and error categorisation. It satisfies command.Commander[T].
type Handler[T command.Message] struct {
	exec      command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	telemetry Telemetry[T]
	tracer    trace.Tracer
}

// NewHandler creates a handler around fn.
func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: handler function cannot be nil")
	}
	h := &Handler[T]{
		exec:    fn,
		logger:  logging.NoOp(),
		timeout: DefaultCommandTimeout,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.telemetry == nil {
		h.telemetry = LogTelemetry[T](h.logger)
	}
	return h
}

// Execute validates msg, applies the timeout and delegates to the wrapped function.
func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return wrapValidationError(err)
	}

	ctx = ensureContext(ctx)
	ctx, cancel := h.withTimeout(ctx)
	defer cancel()

	if err := ctx.Err(); err != nil {
		return wrapContextError(err)
	}

	messageType := command.GetMessageType(msg)
	kind := kindOf(msg)
	fields := map[string]any{
		"command": messageType,
	}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if kind != "" {
		fields["asset_kind"] = kind
	}
	ctx = logging.ContextWithFields(ctx, fields)
	logger := logging.WithFields(h.logger, fields)

	ctx, span := h.tracer.Start(ctx, messageType, trace.WithAttributes(
		attribute.String("asset.command", messageType),
		attribute.String("asset.operation", h.operation),
		attribute.String("asset.kind", kind),
	))
	defer span.End()

	started := time.Now()
	logger.Debug("assets.command.start")

	err := h.exec(ctx, msg)
	outcome := OutcomeCompleted
	switch {
	case err != nil && isContextError(err):
		outcome = OutcomeCancelled
		err = wrapContextError(err)
	case err != nil && ctx.Err() != nil:
		outcome = OutcomeCancelled
		err = wrapContextError(ctx.Err())
	case err != nil:
		outcome = OutcomeFailed
		err = wrapExecuteError(err)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	h.telemetry(ctx, msg, Report{
		Command:   messageType,
		Operation: h.operation,
		Kind:      kind,
		Fields:    fields,
		Elapsed:   time.Since(started),
		Err:       err,
		Outcome:   outcome,
		Logger:    logger,
	})
	return err
}

// WithTimeout overrides the default execution timeout. Zero disables it.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		if timeout <= 0 {
			h.timeout = 0
			return
		}
		h.timeout = timeout
	}
}

// WithLogger injects the logger used during execution.
func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = logging.Ensure(logger)
	}
}

// WithOperation names the operation emitted with every log entry and span.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithTelemetry replaces the default logging telemetry callback.
func WithTelemetry[T command.Message](telemetry Telemetry[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.telemetry = telemetry
	}
}

// WithTracer overrides the tracer used for command spans.
func WithTracer[T command.Message](tracer trace.Tracer) HandlerOption[T] {
	return func(h *Handler[T]) {
		if tracer != nil {
			h.tracer = tracer
		}
	}
}

func (h *Handler[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, h.timeout)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// kindOf reports the asset kind a message targets, if it declares one.
func kindOf(msg any) string {
	if k, ok := msg.(interface{ AssetKind() assetapi.Kind }); ok {
		return k.AssetKind().String()
	}
	return ""
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
