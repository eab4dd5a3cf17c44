package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amxcoding/randomquotes-client/internal/platform/logging"
)

// Executor runs state-changing operations as a fixed step pipeline:
// validate, perform, verify, archive, respond. Verification re-checks the
// outcome independently of perform's return value, and archive (broadcast,
// persistence) only runs once verification has passed. A failure at any
// step aborts the remaining ones.
type Executor struct {
	logger *slog.Logger
}

// NewExecutor creates an executor. A nil logger falls back to slog.Default().
func NewExecutor(logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{logger: logger}
}

// ExecutionStep names the pipeline step an error originated from.
type ExecutionStep string

const (
	StepValidate ExecutionStep = "validate"
	StepPerform  ExecutionStep = "perform"
	StepVerify   ExecutionStep = "verify"
	StepArchive  ExecutionStep = "archive"
	StepRespond  ExecutionStep = "respond"
)

// ExecutionError tags a step failure with the step it came from. The cause
// stays reachable through errors.Is/As.
type ExecutionError struct {
	Step  ExecutionStep
	Cause error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s step failed: %v", e.Step, e.Cause)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// StepOf reports which pipeline step err failed in, if it is an execution error.
func StepOf(err error) (ExecutionStep, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Step, true
	}

	return "", false
}

// Operation declares the step functions for one operation. Nil steps are
// skipped. Type parameters: I is the input, P the raw perform result, V the
// verified state, O the caller-facing output.
type Operation[I, P, V, O any] struct {
	// Name identifies the operation in logs.
	Name string

	// Validate rejects bad input before anything changes.
	Validate func(ctx context.Context, input I) error

	// Perform applies the state change.
	Perform func(ctx context.Context, input I) (P, error)

	// Verify re-reads the resulting state instead of trusting performed.
	Verify func(ctx context.Context, input I, performed P) (V, error)

	// Archive runs side effects that must only follow a verified change.
	Archive func(ctx context.Context, input I, verified V) error

	// Respond shapes the verified state for the caller.
	Respond func(ctx context.Context, input I, verified V) (O, error)
}

// Execute drives op through the pipeline. The request-scoped logger from ctx
// wins over the executor's own when present.
func Execute[I, P, V, O any](ctx context.Context, exec *Executor, op Operation[I, P, V, O], input I) (O, error) {
	var zero O

	logger := logging.FromContextOr(ctx, exec.logger).With(slog.String("operation", op.Name))
	start := time.Now()

	if op.Validate != nil {
		if err := op.Validate(ctx, input); err != nil {
			logger.WarnContext(ctx, "validation rejected input", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepValidate, Cause: err}
		}
	}

	var (
		performed P
		err       error
	)

	if op.Perform != nil {
		performed, err = op.Perform(ctx, input)
		if err != nil {
			logger.ErrorContext(ctx, "perform failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepPerform, Cause: err}
		}
	}

	var verified V

	if op.Verify != nil {
		verified, err = op.Verify(ctx, input, performed)
		if err != nil {
			logger.ErrorContext(ctx, "verification failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepVerify, Cause: err}
		}
	}

	if op.Archive != nil {
		if err = op.Archive(ctx, input, verified); err != nil {
			logger.ErrorContext(ctx, "archive failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepArchive, Cause: err}
		}
	}

	var out O

	if op.Respond != nil {
		out, err = op.Respond(ctx, input, verified)
		if err != nil {
			logger.WarnContext(ctx, "respond failed", slog.Any("error", err))

			return zero, &ExecutionError{Step: StepRespond, Cause: err}
		}
	}

	logger.InfoContext(ctx, "operation completed", slog.Duration("duration", time.Since(start)))

	return out, nil
}
