// Copyright 2026 The NovelMind Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ErrorCategory classifies command errors so that scripts and CI
// wrappers can make programmatic decisions (fix input, report a bug)
// without parsing error message text.
type ErrorCategory string

const (
	// CategoryValidation indicates the caller provided invalid input:
	// missing required flags, unparseable values, a project directory
	// that fails validation. The caller should fix the input and retry.
	CategoryValidation ErrorCategory = "validation"

	// CategoryNotFound indicates a referenced resource does not exist:
	// missing project directory, missing config file, a pack path that
	// resolves to nothing. Retrying with the same input will not help.
	CategoryNotFound ErrorCategory = "not_found"

	// CategoryInternal indicates an unexpected error: bugs, I/O
	// failures, parse errors on data the tool produced itself. The
	// caller should report the error rather than retry.
	CategoryInternal ErrorCategory = "internal"
)

// CommandError is a categorized error returned by CLI commands. An
// optional hint carries a suggested next step, printed after a blank
// line below the error message.
//
// Use the category-specific constructors (Validation, NotFound,
// Internal) rather than constructing CommandError directly.
type CommandError struct {
	// Category classifies the error for programmatic handling.
	Category ErrorCategory

	// Hint is an optional suggestion appended to the error message,
	// e.g. "run 'nmbuild validate' to list project problems".
	Hint string

	// Err is the underlying error with the human-readable message.
	Err error
}

// Error returns the error message, with the hint appended after a
// blank line when one is set. The category is not included.
func (e *CommandError) Error() string {
	if e.Hint == "" {
		return e.Err.Error()
	}
	return e.Err.Error() + "\n\n" + e.Hint
}

// Unwrap returns the underlying error, allowing errors.Is and
// errors.As to walk the full chain through the CommandError wrapper.
func (e *CommandError) Unwrap() error { return e.Err }

// WithHint attaches a suggested next step to the error and returns
// the same error for chaining:
//
//	return cli.Validation("no scenes found in %s", dir).
//	    WithHint("scene scripts go under assets/scenes/")
func (e *CommandError) WithHint(format string, args ...any) *CommandError {
	e.Hint = fmt.Sprintf(format, args...)
	return e
}

// Validation creates a validation error: the caller provided bad input.
func Validation(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryValidation, Err: fmt.Errorf(format, args...)}
}

// NotFound creates a not-found error: a referenced resource does not exist.
func NotFound(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryNotFound, Err: fmt.Errorf(format, args...)}
}

// Internal creates an internal error: an unexpected failure, bug, or I/O error.
func Internal(format string, args ...any) *CommandError {
	return &CommandError{Category: CategoryInternal, Err: fmt.Errorf(format, args...)}
}
