package core

import (
	"errors"
	"fmt"
)

// ErrorKind is the build failure taxonomy. Every kind is fail-fast: nothing
// recovers mid-build and nothing is retried.
type ErrorKind string

const (
	ErrNotFound               ErrorKind = "not_found"
	ErrUnsupportedKind        ErrorKind = "unsupported_kind"
	ErrMissingAxis            ErrorKind = "missing_axis"
	ErrUnresolvedReference    ErrorKind = "unresolved_reference"
	ErrUnexpectedRuntime      ErrorKind = "unexpected_runtime"
	ErrNonDeterministicOutput ErrorKind = "non_deterministic_output"
	ErrInvalidDefinition      ErrorKind = "invalid_definition"
	ErrInternal               ErrorKind = "internal"
)

// BuildError wraps an underlying error with operation context, a kind, and
// the offending asset path and/or section kind for the machine-readable
// report.
type BuildError struct {
	Op      string
	Kind    ErrorKind
	Path    string
	Section string
	Err     error
}

func (e *BuildError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Section != "" {
		base += fmt.Sprintf(" (section=%s)", e.Section)
	}
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *BuildError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind classifies an error without callers depending on concrete types.
func IsKind(err error, kind ErrorKind) bool {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind == kind
	}
	return false
}

// KindOf extracts the error kind, defaulting to ErrInternal for errors that
// did not originate in the pipeline.
func KindOf(err error) ErrorKind {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ErrInternal
}
