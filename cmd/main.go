package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	runtests "github.com/ethereum-optimism/infra/op-runtests"
	"github.com/ethereum-optimism/infra/op-runtests/exitcodes"
	"github.com/ethereum-optimism/infra/op-runtests/flags"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

// otelEndpointEnv turns on trace export when set
const otelEndpointEnv = "OTEL_EXPORTER_OTLP_ENDPOINT"

func main() {
	app := newApp()

	if os.Getenv(otelEndpointEnv) != "" {
		shutdown, err := otelconfig.ConfigureOpenTelemetry(
			otelconfig.WithServiceName(app.Name),
			otelconfig.WithServiceVersion(app.Version),
		)
		if err != nil {
			log.Error("Failed to setup open telemetry", "message", err)
		} else {
			// ExitErrHandler exits the process directly, so flush on every exit path.
			cli.OsExiter = func(code int) {
				shutdown()
				os.Exit(code)
			}
			defer shutdown()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		// Only errors the ExitErrHandler did not exit on get here, e.g. bad flags.
		log.Error("Application failed", "message", err)
		cli.OsExiter(exitcodes.RuntimeErr)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "op-runtests"
	app.Usage = "Run a coverage test suite, then every example's self-test"
	app.Description = "op-runtests runs the coverage command of a plan with the plan's search path, " +
		"prints the coverage report, and then runs the self-test of each example directory in order. " +
		"Arguments after the flags are forwarded to the coverage run."
	app.ArgsUsage = "[extra coverage run args...]"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = run
	app.ExitErrHandler = handleExitError
	return app
}

// handleExitError exits with the failing child's exit code. A failing step
// prints nothing more: the child's own output is the error report.
func handleExitError(c *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	if runtests.IsStepError(err) {
		cli.HandleExitCoder(cli.Exit("", runtests.ExitCode(err)))
		return
	}
	cli.HandleExitCoder(cli.Exit(err.Error(), runtests.ExitCode(err)))
}

func run(ctx *cli.Context) error {
	logCfg := oplog.ReadCLIConfig(ctx)
	logger := oplog.NewLogger(ctx.App.ErrWriter, logCfg)
	oplog.SetGlobalLogHandler(logger.Handler())

	cfg, err := runtests.NewConfig(ctx, logger)
	if err != nil {
		return runtests.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}
	cfg.Color = logCfg.Color
	cfg.Stdout = ctx.App.Writer
	cfg.Stderr = ctx.App.ErrWriter

	rt, err := runtests.New(cfg)
	if err != nil {
		return err
	}

	_, err = rt.Run(ctx.Context)
	return err
}
