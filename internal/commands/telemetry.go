package commands

import (
	"context"
	"time"

	"github.com/goliatone/go-asset-library/internal/logging"
	"github.com/goliatone/go-asset-library/pkg/interfaces"
	command "github.com/goliatone/go-command"
)

// Outcome classifies how an asset command ended.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
	// OutcomeCancelled covers cancellation and deadline expiry. Pickers cancel
	// in-flight work whenever the user moves on, so it is not a failure.
	OutcomeCancelled Outcome = "cancelled"
)

// Report is handed to the telemetry hook after every execution.
type Report struct {
	Command   string
	Operation string
	Kind      string
	Fields    map[string]any
	Elapsed   time.Duration
	Err       error
	Outcome   Outcome
	Logger    interfaces.Logger
}

// Telemetry observes command executions.
type Telemetry[T command.Message] func(ctx context.Context, msg T, report Report)

// LogTelemetry writes one entry per execution: Info when completed, Warn when
// cancelled and Error otherwise.
func LogTelemetry[T command.Message](logger interfaces.Logger) Telemetry[T] {
	logger = logging.Ensure(logger)
	return func(_ context.Context, _ T, report Report) {
		entry := report.Logger
		if entry == nil {
			entry = logging.WithFields(logger, report.Fields)
		}
		args := []any{"outcome", string(report.Outcome), "elapsed_ms", report.Elapsed.Milliseconds()}
		switch report.Outcome {
		case OutcomeCompleted:
			entry.Info("assets.command.completed", args...)
		case OutcomeCancelled:
			entry.Warn("assets.command.cancelled", append(args, "error", report.Err)...)
		default:
			entry.Error("assets.command.failed", append(args, "error", report.Err)...)
		}
	}
}
