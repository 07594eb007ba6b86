// Package exitcodes defines the exit codes op-runtests uses when the failure
// did not come from a child process.
package exitcodes

// When a step fails, op-runtests exits with the child's own exit code. The
// constants below cover everything else:
//
// * Success (0): every step passed
// * StepFailure (1): a step failed without a child exit code, e.g. a missing example directory
// * RuntimeErr (2): configuration or plan errors before any step ran
// * CannotExecute (126): the child command exists but could not be started
// * CommandNotFound (127): the child command could not be found
// * SignalBase (128): added to the signal number when a child is killed by a signal
const (
	Success         = 0
	StepFailure     = 1
	RuntimeErr      = 2
	CannotExecute   = 126
	CommandNotFound = 127
	SignalBase      = 128
)
