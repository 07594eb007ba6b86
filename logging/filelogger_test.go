package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/infra/op-runtests/types"
)

func TestNewFileLogger(t *testing.T) {
	base := t.TempDir()

	l, err := NewFileLogger(base, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", l.GetRunID())
	assert.Equal(t, filepath.Join(base, "testrun-run-1"), l.GetDirectoryForRunID())
	assert.DirExists(t, l.GetDirectoryForRunID())

	_, err = NewFileLogger(base, "")
	require.Error(t, err)
	_, err = NewFileLogger("", "run-1")
	require.Error(t, err)
}

func TestStepLogFilename(t *testing.T) {
	tests := []struct {
		step     types.Step
		expected string
	}{
		{types.Step{Index: 1, Name: "coverage run", Kind: types.StepKindCoverageRun}, "01-coverage-run.log"},
		{types.Step{Index: 3, Name: "../examples/Gyro", Kind: types.StepKindExample}, "03-examples-gyro.log"},
		{types.Step{Index: 12, Name: "..", Kind: types.StepKindExample}, "12-example.log"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, StepLogFilename(tt.step))
		})
	}
}

func TestOpenStripsANSI(t *testing.T) {
	l, err := NewFileLogger(t.TempDir(), "run-2")
	require.NoError(t, err)

	step := types.Step{
		Index:   2,
		Name:    "coverage report",
		Kind:    types.StepKindCoverageReport,
		Dir:     "/work/tests",
		Command: []string{"coverage", "report", "-m"},
	}
	w, path, err := l.Open(step)
	require.NoError(t, err)

	_, err = w.Write([]byte("\x1b[32mok\x1b[0m line one\nsplit "))
	require.NoError(t, err)
	_, err = w.Write([]byte("\x1b[31mred\x1b[0m\nno newline"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"# step 2: coverage report\n# dir: /work/tests\n# cmd: coverage report -m\n\nok line one\nsplit red\nno newline",
		string(content))
	assert.Equal(t, []string{path}, l.Files())
}

func TestWriteSummary(t *testing.T) {
	l, err := NewFileLogger(t.TempDir(), "run-3")
	require.NoError(t, err)

	path, err := l.WriteSummary("\x1b[1mTOTAL\x1b[0m 3 steps\n")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 3 steps\n", string(content))
}

func TestANSIStripWriterWithoutCloser(t *testing.T) {
	var buf bytes.Buffer
	w := NewANSIStripWriter(&buf)

	n, err := w.Write([]byte("\x1b[33mwarn\x1b[0m"))
	require.NoError(t, err)
	assert.Equal(t, 13, n, "reports the full input length")
	assert.Empty(t, buf.String(), "partial line is buffered")

	require.NoError(t, w.Close())
	assert.Equal(t, "warn", buf.String())
}
