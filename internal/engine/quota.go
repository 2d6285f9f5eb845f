package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxCalls is the default number of recorded calls allowed per run.
// The reference contestant makes five; the limit only stops contestants
// whose callbacks recurse.
const DefaultMaxCalls = 64

// QuotaEnforcer counts the calls of one run and enforces a limit.
//
// A contestant's encoder calls back into Send, whose decoder calls back into
// Output. A contestant that calls Send from its decoder loops forever; the
// quota turns that into a StepsExceededError.
type QuotaEnforcer struct {
	maxSteps int
	current  int
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
// It is called before each recorded call.
func (q *QuotaEnforcer) Check(runToken string) error {
	q.current++
	if q.current > q.maxSteps {
		return &StepsExceededError{
			RunToken: runToken,
			Steps:    q.current,
			Limit:    q.maxSteps,
		}
	}
	return nil
}

// Reset resets the step counter to 0.
func (q *QuotaEnforcer) Reset() {
	q.current = 0
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is returned when a run exceeds its call quota. The call
// that crossed the limit is not made and the run ends with this error.
type StepsExceededError struct {
	RunToken string
	Steps    int
	Limit    int
}

func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("run %s exceeded max calls quota: %d calls > %d limit",
		e.RunToken, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
