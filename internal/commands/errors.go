package commands

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	codeInvalid     = "NAV_COMMAND_INVALID"
	codeCanceled    = "NAV_COMMAND_CANCELED"
	codeTimeout     = "NAV_COMMAND_TIMEOUT"
	codeFailed      = "NAV_COMMAND_FAILED"
	codeInterrupted = "NAV_COMMAND_INTERRUPTED"
)

// invalid marks a message that failed its own Validate.
func invalid(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryValidation, "navigation command rejected").
		WithTextCode(codeInvalid)
}

// interrupted marks a run stopped by its context.
func interrupted(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	code, message := codeInterrupted, "navigation command interrupted"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		code, message = codeTimeout, "navigation command timed out"
	case errors.Is(err, context.Canceled):
		code, message = codeCanceled, "navigation command canceled"
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, message).WithTextCode(code)
}

// failed marks an error returned by the command body. Errors that already
// carry a category keep it, so tree validation stays a validation error.
func failed(err error) error {
	if err == nil || goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryCommand, "navigation command failed").
		WithTextCode(codeFailed)
}
