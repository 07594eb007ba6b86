package runtests

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-runtests/flags"
	"github.com/ethereum-optimism/infra/op-runtests/runner"
)

// Config holds the application configuration
type Config struct {
	PlanFile        string   // Absolute path of the plan, empty for the embedded default
	Root            string   // Absolute directory every step is resolved against
	Args            []string // Forwarded verbatim to the coverage run
	NoExamples      bool     // Skip the example phase regardless of the environment
	KeepGoing       bool     // Continue the example phase past a failing example
	DryRun          bool     // Print the plan instead of running it
	Summary         bool     // Print a summary table to Stderr when done
	Color           bool     // Use colors in the summary table
	LogDir          string   // Absolute directory for step logs, empty to disable
	MetricsTextfile string   // Prometheus textfile path, empty to disable
	Log             log.Logger

	// Process plumbing. NewConfig fills these with the real process values.
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	Environ    func() []string
	CmdBuilder runner.CmdBuilder
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if log == nil {
		return nil, errors.New("logger is required")
	}

	planFile := ctx.String(flags.Plan.Name)
	if planFile != "" {
		abs, err := filepath.Abs(planFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for plan '%s': %w", planFile, err)
		}
		planFile = abs
	}

	root, err := resolveRoot(planFile, ctx.String(flags.Root.Name))
	if err != nil {
		return nil, err
	}

	logDir := ctx.String(flags.LogDir.Name)
	if logDir != "" {
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
		}
	}

	return &Config{
		PlanFile:        planFile,
		Root:            root,
		Args:            ctx.Args().Slice(),
		NoExamples:      ctx.Bool(flags.NoExamples.Name),
		KeepGoing:       ctx.Bool(flags.KeepGoing.Name),
		DryRun:          ctx.Bool(flags.DryRun.Name),
		Summary:         ctx.Bool(flags.Summary.Name),
		LogDir:          logDir,
		MetricsTextfile: ctx.String(flags.MetricsTextfile.Name),
		Log:             log,
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Environ:         os.Environ,
		CmdBuilder:      runner.DefaultCmdBuilder,
	}, nil
}

// executable is swapped in tests
var executable = os.Executable

// resolveRoot picks the directory steps run relative to: an explicit root,
// else the plan's directory, else the directory holding the binary. The
// caller's working directory never matters.
func resolveRoot(planFile, root string) (string, error) {
	switch {
	case root != "":
	case planFile != "":
		root = filepath.Dir(planFile)
	default:
		dir, err := executableDir()
		if err != nil {
			return "", err
		}
		root = dir
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for root '%s': %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root directory: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s is not a directory", abs)
	}
	return abs, nil
}

// executableDir returns the directory of the running binary with symlinks
// resolved, so a symlinked binary anchors to its real location.
func executableDir() (string, error) {
	exe, err := executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return filepath.Dir(exe), nil
}
