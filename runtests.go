// Package runtests runs a coverage test suite followed by the self-tests of a
// list of example projects, stopping at the first failure.
package runtests

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ethereum-optimism/infra/op-runtests/logging"
	"github.com/ethereum-optimism/infra/op-runtests/metrics"
	"github.com/ethereum-optimism/infra/op-runtests/plan"
	"github.com/ethereum-optimism/infra/op-runtests/reporting"
	"github.com/ethereum-optimism/infra/op-runtests/runner"
	"github.com/ethereum-optimism/infra/op-runtests/types"
)

// RunTests executes one plan
type RunTests struct {
	config *Config
	plan   *plan.Plan
}

// New loads the plan named by config, or the default plan
func New(config *Config) (*RunTests, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		return nil, errors.New("config.Log is required")
	}
	if config.Root == "" {
		return nil, errors.New("config.Root is required")
	}
	if config.Stdout == nil || config.Stderr == nil {
		return nil, errors.New("config.Stdout and config.Stderr are required")
	}
	if config.Environ == nil {
		return nil, errors.New("config.Environ is required")
	}

	var (
		p   *plan.Plan
		err error
	)
	if config.PlanFile == "" {
		p, err = plan.Default()
	} else {
		p, err = plan.Load(config.PlanFile)
	}
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to load plan: %w", err))
	}

	config.Log.Debug("Loaded plan",
		"plan", p.Name,
		"file", config.PlanFile,
		"root", config.Root,
		"searchPath", p.SearchPath.Variable,
		"examples", len(p.Examples.Dirs))

	return &RunTests{config: config, plan: p}, nil
}

// Plan returns the loaded plan
func (r *RunTests) Plan() *plan.Plan {
	return r.plan
}

// Run executes the plan. A failing step is returned as a *StepError carrying
// the child's exit code. The result is returned alongside any error once
// steps have started.
func (r *RunTests) Run(ctx context.Context) (*types.RunResult, error) {
	cfg := r.config
	baseEnv := cfg.Environ()
	env := r.plan.Environ(cfg.Root, baseEnv)

	skipped := cfg.NoExamples || r.plan.ExamplesSkipped(func(key string) string {
		return lookupEnv(baseEnv, key)
	})
	if skipped {
		cfg.Log.Info("Skipping examples", "noExamples", cfg.NoExamples, "skipEnv", r.plan.Examples.SkipEnv)
	}

	steps := r.plan.Steps(cfg.Root, cfg.Args, !skipped)

	if cfg.DryRun {
		return r.dryRun(steps, env, skipped)
	}

	runID := uuid.New().String()

	var sink runner.OutputSink
	var fileLogger *logging.FileLogger
	if cfg.LogDir != "" {
		var err error
		fileLogger, err = logging.NewFileLogger(cfg.LogDir, runID)
		if err != nil {
			return nil, NewRuntimeError(err)
		}
		sink = fileLogger
		cfg.Log.Info("Writing step logs", "run_id", fileLogger.GetRunID(), "dir", fileLogger.GetDirectoryForRunID())
	}

	executor, err := runner.NewStepExecutor(runner.ExecutorConfig{
		EnvProvider: func() []string { return env },
		CmdBuilder:  cfg.CmdBuilder,
		Stdin:       cfg.Stdin,
		Stdout:      cfg.Stdout,
		Stderr:      cfg.Stderr,
		Sink:        sink,
		Log:         cfg.Log,
	})
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create step executor: %w", err))
	}

	testRunner, err := runner.NewTestRunner(runner.Config{
		Executor:  executor,
		Log:       cfg.Log,
		RunID:     runID,
		KeepGoing: cfg.KeepGoing,
	})
	if err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to create test runner: %w", err))
	}

	result, runErr := testRunner.Run(ctx, steps)
	result.ExamplesSkipped = skipped

	r.report(result, fileLogger)

	if failed := result.FirstFailure(); failed != nil {
		return result, NewStepError(failed)
	}
	if runErr != nil {
		return result, NewRuntimeError(runErr)
	}
	return result, nil
}

func (r *RunTests) dryRun(steps []types.Step, env []string, skipped bool) (*types.RunResult, error) {
	info := reporting.PlanInfo{
		Name:            r.plan.Name,
		Root:            r.config.Root,
		SearchVariable:  r.plan.SearchPath.Variable,
		ExamplesSkipped: skipped,
	}
	if info.SearchVariable != "" {
		info.SearchValue = lookupEnv(env, info.SearchVariable)
	}

	if err := reporting.NewStreamWriter(r.config.Stdout).Write(reporting.FormatPlan(info, steps)); err != nil {
		return nil, NewRuntimeError(fmt.Errorf("failed to print plan: %w", err))
	}
	return &types.RunResult{Status: types.StatusPass, ExamplesSkipped: skipped}, nil
}

// report writes the optional summary, summary log and metrics textfile.
// Failures here are logged and never change the run's outcome.
func (r *RunTests) report(result *types.RunResult, fileLogger *logging.FileLogger) {
	cfg := r.config
	cfg.Log.Info("Run finished", "result", result.String())

	if cfg.Summary {
		if err := reporting.NewStreamWriter(cfg.Stderr).Write(reporting.FormatSummary(result, cfg.Color)); err != nil {
			cfg.Log.Warn("Failed to print summary", "err", err)
		}
	}

	if fileLogger != nil {
		path, err := fileLogger.WriteSummary(reporting.FormatSummary(result, false))
		if err != nil {
			cfg.Log.Warn("Failed to write summary log", "err", err)
		} else {
			cfg.Log.Info("Wrote summary log", "path", path, "stepLogs", len(fileLogger.Files()))
		}
	}

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			cfg.Log.Warn("Failed to write metrics", "path", cfg.MetricsTextfile, "err", err)
		}
	}
}

// lookupEnv returns the value of key in env, last entry winning
func lookupEnv(env []string, key string) string {
	prefix := key + "="
	value := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			value = strings.TrimPrefix(kv, prefix)
		}
	}
	return value
}
