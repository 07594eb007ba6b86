// Package types contains shared types used across op-runtests
package types

import (
	"fmt"
	"strings"
	"time"
)

// StepKind identifies what a step does within a run
type StepKind string

// String implements the Stringer interface for StepKind
func (k StepKind) String() string {
	return string(k)
}

// StepKind enum values
const (
	StepKindCoverageRun    StepKind = "coverage-run"
	StepKindCoverageReport StepKind = "coverage-report"
	StepKindExample        StepKind = "example"
)

// Status represents the possible states of a step or run
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusSkip  Status = "skip"
	StatusError Status = "error"
)

// Step is a single child process invocation
type Step struct {
	Index   int      // Position in the run, starting at 1
	Name    string   // Human-readable name, e.g. the example directory
	Kind    StepKind // What the step does
	Dir     string   // Absolute working directory for the child
	Command []string // Program followed by its arguments
}

// String returns the command line as it would be typed in a shell
func (s Step) String() string {
	return strings.Join(s.Command, " ")
}

// StepResult captures the outcome of a single step
type StepResult struct {
	Step     Step
	Status   Status
	ExitCode int
	Duration time.Duration
	Error    error
	LogFile  string // Path of the step's log file, if file logging is enabled
}

// RunResult captures the outcome of a whole run
type RunResult struct {
	RunID           string
	Steps           []*StepResult
	Status          Status
	Duration        time.Duration
	ExamplesSkipped bool
}

// Counts returns the number of passed, failed and skipped steps
func (r *RunResult) Counts() (passed, failed, skipped int) {
	for _, s := range r.Steps {
		switch s.Status {
		case StatusPass:
			passed++
		case StatusSkip:
			skipped++
		default:
			failed++
		}
	}
	return passed, failed, skipped
}

// VisitedDirs returns the working directories of every step that was started, in order
func (r *RunResult) VisitedDirs(kind StepKind) []string {
	var dirs []string
	for _, s := range r.Steps {
		if s.Step.Kind == kind && s.Status != StatusSkip {
			dirs = append(dirs, s.Step.Dir)
		}
	}
	return dirs
}

func (r *RunResult) String() string {
	passed, failed, skipped := r.Counts()
	return fmt.Sprintf("run %s: %s (%d passed, %d failed, %d skipped in %s)",
		r.RunID, r.Status, passed, failed, skipped, r.Duration.Truncate(time.Millisecond))
}

// FirstFailure returns the earliest step that did not pass, or nil
func (r *RunResult) FirstFailure() *StepResult {
	for _, s := range r.Steps {
		if s.Status == StatusFail || s.Status == StatusError {
			return s
		}
	}
	return nil
}
