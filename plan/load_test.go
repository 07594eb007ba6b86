package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	p, err := Default()
	require.NoError(t, err)

	assert.Equal(t, "wpilib", p.Name)
	assert.Equal(t, "PYTHONPATH", p.SearchPath.Variable)
	assert.Len(t, p.SearchPath.Dirs, 3)
	assert.Equal(t, "NO_EXAMPLES", p.Examples.SkipEnv)
	assert.Equal(t, []string{"python3", "robot.py", "test", "--builtin"}, p.Examples.Command)
	assert.NotEmpty(t, p.Examples.Dirs)
	assert.Contains(t, p.Coverage.Run, "coverage")
	assert.Equal(t, []string{"python3", "-m", "coverage", "report", "-m"}, p.Coverage.Report)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "robot.yaml", `
search_path:
  variable: PYTHONPATH
  dirs: [" ../lib "]
coverage:
  run: [coverage, run, -m, pytest]
  report: [coverage, report, -m]
examples:
  skip_env: SKIP
  command: [python3, robot.py, test, --builtin]
  dirs: [ex/one, ex/two]
`)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "robot", p.Name, "name defaults to the file name")
	assert.Equal(t, []string{"../lib"}, p.SearchPath.Dirs)
	assert.Equal(t, []string{"ex/one", "ex/two"}, p.Examples.Dirs)
	assert.Equal(t, "SKIP", p.Examples.SkipEnv)
}

func TestLoadYAMLRejectsUnknownFields(t *testing.T) {
	path := writeFile(t, "plan.yml", `
coverage:
  run: [a]
  report: [b]
  extra: true
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "extra")
}

func TestLoadYAMLEmpty(t *testing.T) {
	path := writeFile(t, "plan.yaml", "")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan is empty")
}

func TestLoadMissingCoverage(t *testing.T) {
	path := writeFile(t, "plan.yaml", "name: x\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, IsFieldError(err))
}

func TestLoadHCL(t *testing.T) {
	path := writeFile(t, "plan.hcl", `
name = "robots"

search_path {
  variable = "PYTHONPATH"
  dirs     = ["../wpilib", "../hal-sim"]
}

coverage {
  run    = ["python3", "-m", "coverage", "run", "-m", "pytest"]
  report = ["python3", "-m", "coverage", "report", "-m"]
}

examples {
  skip_env = "NO_EXAMPLES"
  command  = ["python3", "robot.py", "test", "--builtin"]
  dirs     = ["examples/gyro", "examples/tank-drive"]
}
`)

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "robots", p.Name)
	assert.Equal(t, []string{"../wpilib", "../hal-sim"}, p.SearchPath.Dirs)
	assert.Equal(t, []string{"python3", "-m", "coverage", "report", "-m"}, p.Coverage.Report)
	assert.Equal(t, []string{"examples/gyro", "examples/tank-drive"}, p.Examples.Dirs)
}

func TestLoadHCLSyntaxError(t *testing.T) {
	path := writeFile(t, "plan.hcl", `coverage {`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse HCL plan")
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := writeFile(t, "plan.json", "{}")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported plan format")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
