package engine

import (
	"errors"
	"fmt"
)

type FailureKind int

const (
	// StartupFailed means the engine process could not be started.
	StartupFailed FailureKind = iota + 1
	// NoResponse covers silence, early exit and unparseable answers.
	NoResponse
	// IllegalProposal means the engine named a move that is not legal.
	IllegalProposal
)

func (k FailureKind) String() string {
	switch k {
	case StartupFailed:
		return "StartupFailed"
	case NoResponse:
		return "NoResponse"
	case IllegalProposal:
		return "IllegalProposal"
	default:
		return "Unknown"
	}
}

// Failure is the error returned by every failed move request.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("engine: %s", f.Kind)
	}
	return fmt.Sprintf("engine: %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// IsFailure reports whether err carries a Failure of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}
