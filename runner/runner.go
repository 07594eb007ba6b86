package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum-optimism/infra/op-runtests/metrics"
	"github.com/ethereum-optimism/infra/op-runtests/types"
)

// TestRunner runs an ordered list of steps
type TestRunner interface {
	// Run returns an error only when the run itself could not proceed, e.g.
	// because ctx was cancelled. Failing steps are reported in the result.
	Run(ctx context.Context, steps []types.Step) (*types.RunResult, error)
}

// Config holds runner configuration
type Config struct {
	Executor StepExecutor
	Log      log.Logger
	RunID    string // generated when empty

	// KeepGoing lets the example phase continue past a failing example.
	// A failing coverage step always stops the run.
	KeepGoing bool
}

type runner struct {
	executor  StepExecutor
	log       log.Logger
	runID     string
	keepGoing bool
	tracer    trace.Tracer
}

// NewTestRunner creates a new TestRunner
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.New().String()
	}

	return &runner{
		executor:  cfg.Executor,
		log:       cfg.Log,
		runID:     cfg.RunID,
		keepGoing: cfg.KeepGoing,
		tracer:    otel.Tracer(TracerName),
	}, nil
}

// Run implements the TestRunner interface
func (r *runner) Run(ctx context.Context, steps []types.Step) (*types.RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "run", trace.WithAttributes(attribute.String("run.id", r.runID)))
	defer span.End()

	start := time.Now()
	result := &types.RunResult{
		RunID: r.runID,
		Steps: make([]*types.StepResult, 0, len(steps)),
	}
	r.log.Debug("Running steps", "run_id", r.runID, "steps", len(steps), "keepGoing", r.keepGoing)

	stopped := false
	var interrupted error
	for _, step := range steps {
		if stopped {
			result.Steps = append(result.Steps, &types.StepResult{Step: step, Status: types.StatusSkip})
			continue
		}
		if err := ctx.Err(); err != nil {
			r.log.Warn("Run interrupted", "run_id", r.runID, "step", step.Index, "name", step.Name, "err", err)
			interrupted = fmt.Errorf("run interrupted before step %d (%s): %w", step.Index, step.Name, err)
			stopped = true
			result.Steps = append(result.Steps, &types.StepResult{Step: step, Status: types.StatusSkip})
			continue
		}

		res := r.runStep(ctx, step)
		result.Steps = append(result.Steps, res)

		if res.Status == types.StatusPass {
			continue
		}
		if step.Kind == types.StepKindExample && r.keepGoing && ctx.Err() == nil {
			continue
		}
		stopped = true
	}

	result.Duration = time.Since(start)
	result.Status = determineRunStatus(result)
	if interrupted != nil {
		result.Status = types.StatusError
	}
	metrics.RecordRun(r.runID, result.Status, result.Duration)

	if result.Status != types.StatusPass {
		span.SetStatus(codes.Error, "run failed")
	}
	r.log.Info("Run completed", "run_id", r.runID, "status", result.Status, "duration", result.Duration)

	if interrupted != nil {
		return result, interrupted
	}
	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run interrupted: %w", err)
	}
	return result, nil
}

func (r *runner) runStep(ctx context.Context, step types.Step) *types.StepResult {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("step %s", step.Name), trace.WithAttributes(
		attribute.Int(AttrStepIndex, step.Index),
		attribute.String(AttrStepKind, step.Kind.String()),
		attribute.String(AttrStepDir, step.Dir),
	))
	defer span.End()

	r.log.Info("Running step", "step", step.Index, "name", step.Name, "kind", step.Kind, "dir", step.Dir)
	r.log.Debug("Step command", "step", step.Index, "cmd", step.String())

	res := r.executor.Execute(ctx, step)
	span.SetAttributes(attribute.Int(AttrExitCode, res.ExitCode))
	metrics.RecordStep(step.Kind, step.Name, res.Status, res.Duration)

	if res.Status == types.StatusPass {
		r.log.Info("Step passed", "step", step.Index, "name", step.Name, "duration", res.Duration)
		return res
	}

	if res.Error == nil {
		res.Error = fmt.Errorf("step %s finished with status %s", step.Name, res.Status)
	}
	span.RecordError(res.Error)
	span.SetStatus(codes.Error, res.Error.Error())
	metrics.RecordErrorDetails(step.Kind.String(), res.Error)
	r.log.Error("Step failed", "step", step.Index, "name", step.Name, "exitCode", res.ExitCode, "err", res.Error)
	return res
}

func determineRunStatus(result *types.RunResult) types.Status {
	for _, s := range result.Steps {
		switch s.Status {
		case types.StatusFail:
			return types.StatusFail
		case types.StatusError:
			return types.StatusError
		}
	}
	return types.StatusPass
}
