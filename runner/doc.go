// Package runner executes the steps of a run as child processes.
//
// The main components are:
//   - StepExecutor: starts one child in its step directory with the run's
//     environment and maps its outcome to a StepResult and exit code
//   - OutputSink: optional per-step capture of child output, e.g. log files
//   - TestRunner: walks the ordered steps, stopping at the first failure
//
// Children write straight to the configured stdout and stderr. Nothing here
// parses their output.
package runner
