package runtests

import (
	"errors"
	"fmt"

	"github.com/ethereum-optimism/infra/op-runtests/exitcodes"
	"github.com/ethereum-optimism/infra/op-runtests/types"
)

// RuntimeError represents a setup error that should lead to exit code 2.
// Examples include an unreadable plan or a missing root directory.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// StepError is returned when a step failed. The process should exit with
// ExitCode, which is the failing child's own exit code.
type StepError struct {
	Step     types.Step
	ExitCode int
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s) failed: %v", e.Step.Index, e.Step.Name, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *StepError) Unwrap() error {
	return e.Err
}

// NewStepError creates a StepError from a failed step result
func NewStepError(res *types.StepResult) *StepError {
	return &StepError{Step: res.Step, ExitCode: res.ExitCode, Err: res.Error}
}

// IsStepError checks if the error is or wraps a StepError
func IsStepError(err error) bool {
	var stepErr *StepError
	return err != nil && errors.As(err, &stepErr)
}

// ExitCode returns the process exit code for an error returned by Run
func ExitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		if stepErr.ExitCode == exitcodes.Success {
			return exitcodes.StepFailure
		}
		return stepErr.ExitCode
	}
	if IsRuntimeError(err) {
		return exitcodes.RuntimeErr
	}
	return exitcodes.StepFailure
}
