package runtests

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/infra/op-runtests/flags"
)

func newCLIContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags.Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestNewConfig(t *testing.T) {
	dir := t.TempDir()
	planFile := filepath.Join(dir, "plan.yaml")
	require.NoError(t, os.WriteFile(planFile, []byte("{}"), 0644))
	logDir := filepath.Join(dir, "logs")

	ctx := newCLIContext(t,
		"--plan", planFile,
		"--keep-going",
		"--summary",
		"--log-dir", logDir,
		"--metrics-textfile", "metrics.prom",
		"--", "-k", "gyro",
	)

	cfg, err := NewConfig(ctx, log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	assert.Equal(t, planFile, cfg.PlanFile)
	assert.Equal(t, dir, cfg.Root, "root defaults to the plan's directory")
	assert.Equal(t, []string{"-k", "gyro"}, cfg.Args)
	assert.True(t, cfg.KeepGoing)
	assert.True(t, cfg.Summary)
	assert.False(t, cfg.NoExamples)
	assert.False(t, cfg.DryRun)
	assert.Equal(t, logDir, cfg.LogDir)
	assert.Equal(t, "metrics.prom", cfg.MetricsTextfile)
	assert.NotNil(t, cfg.Environ)
	assert.NotNil(t, cfg.CmdBuilder)
}

func TestNewConfigRequiresLogger(t *testing.T) {
	_, err := NewConfig(newCLIContext(t), nil)
	require.Error(t, err)
}

func TestNewConfigBadRoot(t *testing.T) {
	ctx := newCLIContext(t, "--root", filepath.Join(t.TempDir(), "nope"))
	_, err := NewConfig(ctx, log.NewLogger(log.DiscardHandler()))
	require.Error(t, err)
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	exeDir, err := executableDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		planFile string
		root     string
		want     string
		wantErr  bool
	}{
		{name: "explicit root wins", planFile: filepath.Join(dir, "plan.yaml"), root: other, want: other},
		{name: "plan directory", planFile: filepath.Join(dir, "plan.yaml"), want: dir},
		{name: "binary directory", want: exeDir},
		{name: "missing root", root: filepath.Join(dir, "missing"), wantErr: true},
		{name: "root is a file", root: file, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRoot(tt.planFile, tt.root)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRootIgnoresWorkingDirectory(t *testing.T) {
	var roots []string
	for _, dir := range []string{t.TempDir(), t.TempDir()} {
		t.Chdir(dir)
		root, err := resolveRoot("", "")
		require.NoError(t, err)
		roots = append(roots, root)
	}
	assert.Equal(t, roots[0], roots[1])
}

func TestResolveRootFollowsBinarySymlink(t *testing.T) {
	realDir := t.TempDir()
	binary := filepath.Join(realDir, "op-runtests")
	require.NoError(t, os.WriteFile(binary, nil, 0755))

	linkDir := t.TempDir()
	link := filepath.Join(linkDir, "op-runtests")
	require.NoError(t, os.Symlink(binary, link))

	orig := executable
	t.Cleanup(func() { executable = orig })
	executable = func() (string, error) { return link, nil }

	t.Chdir(linkDir)
	root, err := resolveRoot("", "")
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(realDir)
	require.NoError(t, err)
	assert.Equal(t, want, root)
}

func TestResolveRootExecutableError(t *testing.T) {
	orig := executable
	t.Cleanup(func() { executable = orig })
	executable = func() (string, error) { return "", errors.New("no executable") }

	_, err := resolveRoot("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to locate executable")
}
