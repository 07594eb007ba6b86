package flags

import (
	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "OP_RUNTESTS"

var (
	Plan = &cli.StringFlag{
		Name:    "plan",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "PLAN"),
		Usage:   "Path to a run plan (.yaml, .yml or .hcl). The embedded default plan is used when omitted.",
	}
	Root = &cli.StringFlag{
		Name:    "root",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ROOT"),
		Usage:   "Directory the plan's relative paths resolve against. Defaults to the plan's directory, or the directory of the op-runtests binary for the default plan.",
	}
	NoExamples = &cli.BoolFlag{
		Name:    "no-examples",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NO_EXAMPLES"),
		Usage:   "Skip the example self-tests, as if the plan's skip variable were set",
	}
	KeepGoing = &cli.BoolFlag{
		Name:    "keep-going",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "KEEP_GOING"),
		Usage:   "Run the remaining examples after an example fails. Exits with the first failing exit code.",
	}
	DryRun = &cli.BoolFlag{
		Name:    "dry-run",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "DRY_RUN"),
		Usage:   "Print the resolved plan and exit without running anything",
	}
	Summary = &cli.BoolFlag{
		Name:    "summary",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SUMMARY"),
		Usage:   "Print a summary table to stderr once the run finishes",
	}
	LogDir = &cli.StringFlag{
		Name:    "log-dir",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "LOG_DIR"),
		Usage:   "Directory to keep a copy of every step's output in (disabled when empty)",
	}
	MetricsTextfile = &cli.StringFlag{
		Name:    "metrics-textfile",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_TEXTFILE"),
		Usage:   "Write run metrics in Prometheus text format to this file (disabled when empty)",
	}
)

var optionalFlags = []cli.Flag{
	Plan,
	Root,
	NoExamples,
	KeepGoing,
	DryRun,
	Summary,
	LogDir,
	MetricsTextfile,
}

var Flags []cli.Flag

func init() {
	Flags = append(Flags, optionalFlags...)
	Flags = append(Flags, oplog.CLIFlags(EnvVarPrefix)...)
}
