package runner

import "time"

// Span attribute keys
const (
	AttrStepIndex = "step.index"
	AttrStepKind  = "step.kind"
	AttrStepDir   = "step.dir"
	AttrExitCode  = "step.exit_code"
)

// TracerName is the OpenTelemetry instrumentation name of the runner
const TracerName = "op-runtests runner"

// InterruptGracePeriod is how long a child has to exit after being
// interrupted before it is killed
const InterruptGracePeriod = 10 * time.Second
