// Package plan describes what a run does: which directories form the
// interpreter search path, which commands collect and report coverage, and
// which example directories get their self-test run afterwards.
package plan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum-optimism/infra/op-runtests/types"
)

// Plan is a validated run plan. Directory entries are either absolute or
// relative to the run's root directory.
type Plan struct {
	Name       string
	SearchPath SearchPath
	Coverage   Coverage
	Examples   Examples
}

// SearchPath names the environment variable the test process consults to find
// importable code, and the directories to prepend to it.
type SearchPath struct {
	Variable string
	Dirs     []string
}

// Coverage holds the two coverage commands: Run collects, Report prints.
type Coverage struct {
	Run    []string
	Report []string
}

// Examples lists the example directories to self-test, in order.
type Examples struct {
	SkipEnv string   // if this env var is non-empty, no example is visited
	Command []string // run inside every example directory
	Dirs    []string
}

// FieldError reports an invalid plan field
type FieldError struct {
	Path  string
	Field string
	Msg   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid plan %s: %s: %s", e.Path, e.Field, e.Msg)
}

func invalidField(path, field, msg string) error {
	return &FieldError{Path: path, Field: field, Msg: msg}
}

// IsFieldError checks if the error is or wraps a FieldError
func IsFieldError(err error) bool {
	var fe *FieldError
	return err != nil && errors.As(err, &fe)
}

// Validate checks that the plan can be turned into steps. path is only used
// for error messages.
func (p *Plan) Validate(path string) error {
	if len(p.Coverage.Run) == 0 {
		return invalidField(path, "coverage.run", "command is required")
	}
	if len(p.Coverage.Report) == 0 {
		return invalidField(path, "coverage.report", "command is required")
	}
	if len(p.SearchPath.Dirs) > 0 && p.SearchPath.Variable == "" {
		return invalidField(path, "search_path.variable", "variable is required when dirs are set")
	}
	if strings.ContainsAny(p.SearchPath.Variable, "= ") {
		return invalidField(path, "search_path.variable", fmt.Sprintf("%q is not a valid variable name", p.SearchPath.Variable))
	}
	for i, d := range p.SearchPath.Dirs {
		if d == "" {
			return invalidField(path, fmt.Sprintf("search_path.dirs[%d]", i), "directory is empty")
		}
	}
	if len(p.Examples.Dirs) > 0 && len(p.Examples.Command) == 0 {
		return invalidField(path, "examples.command", "command is required when dirs are set")
	}
	for i, d := range p.Examples.Dirs {
		if d == "" {
			return invalidField(path, fmt.Sprintf("examples.dirs[%d]", i), "directory is empty")
		}
	}
	return nil
}

// ExamplesSkipped reports whether the skip variable is set to a non-empty value
func (p *Plan) ExamplesSkipped(getenv func(string) string) bool {
	if p.Examples.SkipEnv == "" || getenv == nil {
		return false
	}
	return getenv(p.Examples.SkipEnv) != ""
}

// CoverageSteps returns the coverage run and report steps. args are appended
// verbatim to the run command.
func (p *Plan) CoverageSteps(root string, args []string) []types.Step {
	run := make([]string, 0, len(p.Coverage.Run)+len(args))
	run = append(run, p.Coverage.Run...)
	run = append(run, args...)

	return []types.Step{
		{
			Index:   1,
			Name:    "coverage run",
			Kind:    types.StepKindCoverageRun,
			Dir:     root,
			Command: run,
		},
		{
			Index:   2,
			Name:    "coverage report",
			Kind:    types.StepKindCoverageReport,
			Dir:     root,
			Command: append([]string(nil), p.Coverage.Report...),
		},
	}
}

// ExampleSteps returns one step per example directory, numbered from first.
func (p *Plan) ExampleSteps(root string, first int) []types.Step {
	steps := make([]types.Step, 0, len(p.Examples.Dirs))
	for i, dir := range p.Examples.Dirs {
		steps = append(steps, types.Step{
			Index:   first + i,
			Name:    filepath.ToSlash(filepath.Clean(dir)),
			Kind:    types.StepKindExample,
			Dir:     resolveDir(root, dir),
			Command: append([]string(nil), p.Examples.Command...),
		})
	}
	return steps
}

// Steps returns every step of the run in execution order.
func (p *Plan) Steps(root string, args []string, withExamples bool) []types.Step {
	steps := p.CoverageSteps(root, args)
	if withExamples {
		steps = append(steps, p.ExampleSteps(root, len(steps)+1)...)
	}
	return steps
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

// SearchPathValue joins the absolute form of dirs with the platform list
// separator and appends existing. An empty existing value adds nothing, so
// the result never ends in a bare separator.
func SearchPathValue(root string, dirs []string, existing string) string {
	parts := make([]string, 0, len(dirs)+1)
	for _, d := range dirs {
		parts = append(parts, resolveDir(root, d))
	}
	if existing != "" {
		parts = append(parts, existing)
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Environ returns base with the search path variable rewritten. Any earlier
// value of the variable in base is kept after the plan's directories. base is
// not modified.
func (p *Plan) Environ(root string, base []string) []string {
	env := make([]string, 0, len(base)+1)
	if p.SearchPath.Variable == "" || len(p.SearchPath.Dirs) == 0 {
		return append(env, base...)
	}

	prefix := p.SearchPath.Variable + "="
	existing := ""
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			// later entries win, as exec.Cmd does when it deduplicates Env
			existing = strings.TrimPrefix(kv, prefix)
			continue
		}
		env = append(env, kv)
	}
	return append(env, prefix+SearchPathValue(root, p.SearchPath.Dirs, existing))
}
