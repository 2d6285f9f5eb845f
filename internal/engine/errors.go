package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an error raised by the engine itself rather than by the
// driver or a contestant.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// RunToken identifies the affected run, if one was started.
	RunToken string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnknownContestant indicates no contestant has the requested name.
	ErrCodeUnknownContestant RuntimeErrorCode = "UNKNOWN_CONTESTANT"

	// ErrCodeStore indicates the run log could not be written or read.
	ErrCodeStore RuntimeErrorCode = "STORE"

	// ErrCodeReplayMismatch indicates a replayed run diverged from the log.
	ErrCodeReplayMismatch RuntimeErrorCode = "REPLAY_MISMATCH"
)

func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.RunToken != "" {
		msg = fmt.Sprintf("%s (run=%s)", msg, e.RunToken)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsStoreError returns true if the error came from the run log.
func IsStoreError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeStore
}

func storeError(runToken, op string, err error) *RuntimeError {
	return &RuntimeError{
		Code:     ErrCodeStore,
		Message:  op,
		RunToken: runToken,
		Err:      err,
	}
}
