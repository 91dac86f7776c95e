package commands

import (
	"context"
	"maps"
	"time"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-cms-nav/internal/logging"
	"github.com/goliatone/go-cms-nav/pkg/interfaces"
)

// DefaultTimeout bounds one command run.
const DefaultTimeout = 30 * time.Second

// HandlerOption configures a Handler.
type HandlerOption[T command.Message] func(*Handler[T])

// Handler runs a navigation command body after validating the message. It
// bounds the run with a timeout, logs it and categorises its error. It
// satisfies go-command's Commander interface.
type Handler[T command.Message] struct {
	run       command.CommandFunc[T]
	logger    interfaces.Logger
	timeout   time.Duration
	operation string
	fields    func(T) map[string]any
	observer  Observer[T]
}

func NewHandler[T command.Message](fn command.CommandFunc[T], opts ...HandlerOption[T]) *Handler[T] {
	if fn == nil {
		panic("commands: nil command body")
	}
	h := &Handler[T]{
		run:     fn,
		logger:  logging.NoOp(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler[T]) Execute(ctx context.Context, msg T) error {
	if err := command.ValidateMessage(msg); err != nil {
		return invalid(err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	name := command.GetMessageType(msg)
	fields := map[string]any{"command": name}
	if h.operation != "" {
		fields["operation"] = h.operation
	}
	if h.fields != nil {
		maps.Copy(fields, h.fields(msg))
	}
	logger := logging.WithFields(h.logger, fields)

	if err := ctx.Err(); err != nil {
		return interrupted(err)
	}

	started := time.Now()
	logger.Debug("command.start")
	err := h.run(ctx, msg)
	outcome := OutcomeDone
	if err != nil {
		outcome, err = OutcomeFailed, failed(err)
	} else if ctxErr := ctx.Err(); ctxErr != nil {
		outcome, err = OutcomeInterrupted, interrupted(ctxErr)
	}

	if h.observer != nil {
		h.observer(ctx, msg, Report{
			Command:   name,
			Operation: h.operation,
			Fields:    fields,
			Elapsed:   time.Since(started),
			Err:       err,
			Outcome:   outcome,
		})
		return err
	}
	if err != nil {
		logger.Error("command.failed", "error", err)
		return err
	}
	logger.Info("command.done")
	return nil
}

// LoggerOrNoOp returns logger, or a no-op logger when it is nil.
func LoggerOrNoOp(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}

// WithTimeout overrides DefaultTimeout. Zero or less disables the bound.
func WithTimeout[T command.Message](timeout time.Duration) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.timeout = max(timeout, 0)
	}
}

func WithLogger[T command.Message](logger interfaces.Logger) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.logger = LoggerOrNoOp(logger)
	}
}

// WithOperation names the operation in every log entry.
func WithOperation[T command.Message](operation string) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.operation = operation
	}
}

// WithMessageFields adds per-message fields to the run's log entries.
func WithMessageFields[T command.Message](fn func(T) map[string]any) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.fields = fn
	}
}

// WithObserver hands run reports to fn instead of the built-in logging.
func WithObserver[T command.Message](fn Observer[T]) HandlerOption[T] {
	return func(h *Handler[T]) {
		h.observer = fn
	}
}
