package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepString(t *testing.T) {
	s := Step{Command: []string{"python3", "robot.py", "test", "--builtin"}}
	assert.Equal(t, "python3 robot.py test --builtin", s.String())
}

func TestRunResultCounts(t *testing.T) {
	r := &RunResult{
		RunID: "abc",
		Steps: []*StepResult{
			{Status: StatusPass},
			{Status: StatusPass},
			{Status: StatusFail},
			{Status: StatusError},
			{Status: StatusSkip},
		},
		Status:   StatusFail,
		Duration: 1500 * time.Millisecond,
	}

	passed, failed, skipped := r.Counts()
	assert.Equal(t, 2, passed)
	assert.Equal(t, 2, failed)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, "run abc: fail (2 passed, 2 failed, 1 skipped in 1.5s)", r.String())
}

func TestRunResultVisitedDirs(t *testing.T) {
	r := &RunResult{
		Steps: []*StepResult{
			{Step: Step{Kind: StepKindCoverageRun, Dir: "/root"}, Status: StatusPass},
			{Step: Step{Kind: StepKindExample, Dir: "/ex/a"}, Status: StatusPass},
			{Step: Step{Kind: StepKindExample, Dir: "/ex/b"}, Status: StatusFail},
			{Step: Step{Kind: StepKindExample, Dir: "/ex/c"}, Status: StatusSkip},
		},
	}

	assert.Equal(t, []string{"/ex/a", "/ex/b"}, r.VisitedDirs(StepKindExample))
	assert.Equal(t, []string{"/root"}, r.VisitedDirs(StepKindCoverageRun))
	assert.Nil(t, r.VisitedDirs(StepKindCoverageReport))
}

func TestRunResultFirstFailure(t *testing.T) {
	first := &StepResult{Step: Step{Index: 2}, Status: StatusFail, ExitCode: 3}
	r := &RunResult{
		Steps: []*StepResult{
			{Step: Step{Index: 1}, Status: StatusPass},
			first,
			{Step: Step{Index: 3}, Status: StatusError, ExitCode: 1},
			{Step: Step{Index: 4}, Status: StatusSkip},
		},
	}
	assert.Same(t, first, r.FirstFailure())

	assert.Nil(t, (&RunResult{Steps: []*StepResult{{Status: StatusPass}, {Status: StatusSkip}}}).FirstFailure())
}
