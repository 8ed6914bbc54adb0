package kernel

import "errors"

// The kernel recognizes a closed set of error kinds. Callers should use
// errors.Is against these sentinels rather than matching on message text.
var (
	// ErrMalformedInput means a rule record, subscription row, or matrix
	// input failed structural validation (wrong width, negative id,
	// duplicate id) before any algorithm ran.
	ErrMalformedInput = errors.New("flfp: malformed input")

	// ErrEmptyResult means an operation had well-formed input but nothing
	// to do (zero users, zero attributes, an already-unique population) and
	// returned a zero-value result rather than an error condition.
	ErrEmptyResult = errors.New("flfp: empty result")

	// ErrWorkerFailure wraps a panic or error recovered from a single
	// worker-pool task. It does not abort the run; the caller logs it and
	// the task's output is omitted.
	ErrWorkerFailure = errors.New("flfp: worker task failed")

	// ErrFatal marks an error that must abort the entire run (storage
	// unwritable, matrix corrupt).
	ErrFatal = errors.New("flfp: fatal")
)

// UnknownNameError describes a user's raw filterlist name that does not
// resolve to any known list, after alias resolution. The subscription
// resolver does not construct it: Resolve reports such names as plain
// strings in ResolveResult.Unresolved, and ResolveAll returns them as a
// per-user map alongside the resolved subscriptions.
type UnknownNameError struct {
	Name string
}

func (e *UnknownNameError) Error() string {
	return "flfp: unknown filterlist name: " + e.Name
}

// MalformedInputError adds context to ErrMalformedInput.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "flfp: malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return ErrMalformedInput }
