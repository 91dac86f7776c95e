package commands

import (
	"context"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// Outcome classifies how a command run ended.
type Outcome string

const (
	OutcomeDone        Outcome = "done"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Report describes one finished command run.
type Report struct {
	Command   string
	Operation string
	Fields    map[string]any
	Elapsed   time.Duration
	Err       error
	Outcome   Outcome
}

// Observer receives a report after every run. Tree commands use it to log
// how long a rebuild took.
type Observer[T command.Message] func(ctx context.Context, msg T, report Report)

// LogReports returns an observer that writes one entry per run.
func LogReports[T command.Message](logger interfaces.Logger) Observer[T] {
	logger = LoggerOrNoOp(logger)
	return func(_ context.Context, _ T, report Report) {
		entry := logging.WithFields(logger, report.Fields)
		args := []any{"elapsed_ms", report.Elapsed.Milliseconds()}
		switch report.Outcome {
		case OutcomeDone:
			entry.Info("command.done", args...)
		case OutcomeInterrupted:
			entry.Warn("command.interrupted", append(args, "error", report.Err)...)
		default:
			entry.Error("command.failed", append(args, "error", report.Err)...)
		}
	}
}
