package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/infra/op-runtests/exitcodes"
	"github.com/ethereum-optimism/infra/op-runtests/types"
)

var _ StepExecutor = (*stepExecutor)(nil)

// StepExecutor runs a single step as a child process and waits for it.
type StepExecutor interface {
	// Execute never returns a nil result. A failing child is reported through
	// the result's Status and ExitCode, not as an error.
	Execute(ctx context.Context, step types.Step) *types.StepResult
}

// OutputSink captures a copy of each step's output
type OutputSink interface {
	// Open returns a writer for the step's output and the path it writes to.
	// The executor closes the writer once the child has exited.
	Open(step types.Step) (io.WriteCloser, string, error)
}

// CmdBuilder creates the command for a step. The returned func is called
// after the command has finished.
type CmdBuilder func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func())

// DefaultCmdBuilder builds an exec.CommandContext that interrupts the child
// when ctx is done, the way a terminal's Ctrl-C does, and kills it only if it
// has not exited after InterruptGracePeriod.
func DefaultCmdBuilder(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()) {
	cmd := exec.CommandContext(ctx, name, arg...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = InterruptGracePeriod
	return cmd, func() {}
}

// stepExecutor implements StepExecutor
type stepExecutor struct {
	envProvider func() []string
	cmdBuilder  CmdBuilder
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	sink        OutputSink
	log         log.Logger
}

// ExecutorConfig configures NewStepExecutor
type ExecutorConfig struct {
	EnvProvider func() []string // environment for every child
	CmdBuilder  CmdBuilder      // defaults to DefaultCmdBuilder
	Stdin       io.Reader       // nil means the null device
	Stdout      io.Writer
	Stderr      io.Writer
	Sink        OutputSink // optional
	Log         log.Logger
}

// NewStepExecutor creates a new step executor
func NewStepExecutor(cfg ExecutorConfig) (StepExecutor, error) {
	if cfg.EnvProvider == nil {
		return nil, fmt.Errorf("envProvider cannot be nil")
	}
	if cfg.Stdout == nil {
		return nil, fmt.Errorf("stdout cannot be nil")
	}
	if cfg.Stderr == nil {
		return nil, fmt.Errorf("stderr cannot be nil")
	}
	if cfg.CmdBuilder == nil {
		cfg.CmdBuilder = DefaultCmdBuilder
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}

	return &stepExecutor{
		envProvider: cfg.EnvProvider,
		cmdBuilder:  cfg.CmdBuilder,
		stdin:       cfg.Stdin,
		stdout:      cfg.Stdout,
		stderr:      cfg.Stderr,
		sink:        cfg.Sink,
		log:         cfg.Log,
	}, nil
}

// Execute runs the step's command inside the step's directory
func (e *stepExecutor) Execute(ctx context.Context, step types.Step) *types.StepResult {
	result := &types.StepResult{Step: step}

	if err := checkDir(step.Dir); err != nil {
		result.Status = types.StatusError
		result.ExitCode = exitcodes.StepFailure
		result.Error = err
		return result
	}
	if len(step.Command) == 0 {
		result.Status = types.StatusError
		result.ExitCode = exitcodes.StepFailure
		result.Error = errors.New("step has no command")
		return result
	}

	cmd, cleanup := e.cmdBuilder(ctx, step.Command[0], step.Command[1:]...)
	defer cleanup()

	cmd.Dir = step.Dir
	cmd.Env = e.envProvider()
	cmd.Stdin = e.stdin
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr

	if e.sink != nil {
		w, path, err := e.sink.Open(step)
		if err != nil {
			result.Status = types.StatusError
			result.ExitCode = exitcodes.StepFailure
			result.Error = fmt.Errorf("failed to open step log: %w", err)
			return result
		}
		defer func() {
			if err := w.Close(); err != nil {
				e.log.Warn("Failed to close step log", "path", path, "err", err)
			}
		}()
		result.LogFile = path
		cmd.Stdout = io.MultiWriter(e.stdout, w)
		cmd.Stderr = io.MultiWriter(e.stderr, w)
	}

	start := time.Now()
	runErr := cmd.Run()
	result.Duration = time.Since(start)

	if runErr == nil {
		result.Status = types.StatusPass
		result.ExitCode = exitcodes.Success
		return result
	}

	result.ExitCode = ExitCode(runErr)
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		result.Status = types.StatusFail
		result.Error = fmt.Errorf("%s exited with code %d", step.Command[0], result.ExitCode)
	} else {
		result.Status = types.StatusError
		result.Error = fmt.Errorf("failed to start %s: %w", step.Command[0], runErr)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Error = fmt.Errorf("%w: %w", ctxErr, result.Error)
	}
	return result
}

func checkDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot enter directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("cannot enter directory %s: not a directory", dir)
	}
	return nil
}

// ExitCode maps the error returned by exec.Cmd.Run to the exit code a shell
// would report for the same child.
func ExitCode(err error) int {
	if err == nil {
		return exitcodes.Success
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return exitcodes.SignalBase + int(ws.Signal())
		}
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
		return exitcodes.StepFailure
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return exitcodes.CommandNotFound
	}
	return exitcodes.CannotExecute
}
