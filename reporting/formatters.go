// Package reporting renders run plans and run results as tables.
package reporting

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ethereum-optimism/infra/op-runtests/types"
)

// StatusDisplay represents display information for a step status
type StatusDisplay struct {
	Text  string
	Color text.Colors
}

func getStatusDisplay(status types.Status) StatusDisplay {
	switch status {
	case types.StatusPass:
		return StatusDisplay{Text: "✓ pass", Color: text.Colors{text.FgGreen}}
	case types.StatusFail:
		return StatusDisplay{Text: "✗ fail", Color: text.Colors{text.FgRed}}
	case types.StatusSkip:
		return StatusDisplay{Text: "- skip", Color: text.Colors{text.FgYellow}}
	case types.StatusError:
		return StatusDisplay{Text: "✗ error", Color: text.Colors{text.FgRed, text.Bold}}
	default:
		return StatusDisplay{Text: "? unknown"}
	}
}

// formatDuration formats a duration for display
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// ReportWriter defines the interface for writing reports to various destinations
type ReportWriter interface {
	Write(content string) error
}

var _ ReportWriter = (*StreamWriter)(nil)

// StreamWriter writes reports to a stream such as stderr
type StreamWriter struct {
	out io.Writer
}

// NewStreamWriter creates a new stream writer
func NewStreamWriter(out io.Writer) *StreamWriter {
	return &StreamWriter{out: out}
}

// Write writes the content to the stream
func (sw *StreamWriter) Write(content string) error {
	_, err := io.WriteString(sw.out, content)
	return err
}

// FormatSummary renders one row per step plus a totals footer. Colors are
// only used when color is true.
func FormatSummary(result *types.RunResult, color bool) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("Run %s (%s)", result.RunID, formatDuration(result.Duration)))
	t.AppendHeader(table.Row{"#", "Step", "Kind", "Duration", "Exit", "Status", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Step", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, s := range result.Steps {
		status := getStatusDisplay(s.Status)
		statusText := status.Text
		if color && len(status.Color) > 0 {
			statusText = status.Color.Sprint(status.Text)
		}

		exit, duration, errText := "-", "-", ""
		if s.Status != types.StatusSkip {
			exit = fmt.Sprintf("%d", s.ExitCode)
			duration = formatDuration(s.Duration)
		}
		if s.Error != nil {
			errText = s.Error.Error()
		}

		t.AppendRow(table.Row{s.Step.Index, s.Step.Name, s.Step.Kind, duration, exit, statusText, errText})
	}

	passed, failed, skipped := result.Counts()
	footer := fmt.Sprintf("%d passed, %d failed, %d skipped", passed, failed, skipped)
	if result.ExamplesSkipped {
		footer += ", examples disabled"
	}
	t.AppendFooter(table.Row{"", "TOTAL", "", formatDuration(result.Duration), "", getStatusDisplay(result.Status).Text, footer})

	t.SetStyle(table.StyleLight)
	if color {
		switch result.Status {
		case types.StatusPass:
			t.SetStyle(table.StyleColoredBlackOnGreenWhite)
		case types.StatusSkip:
			t.SetStyle(table.StyleColoredBlackOnYellowWhite)
		default:
			t.SetStyle(table.StyleColoredBlackOnRedWhite)
		}
	}
	t.Style().Format.Footer = text.FormatDefault

	return t.Render() + "\n"
}

// PlanInfo is what FormatPlan shows besides the steps
type PlanInfo struct {
	Name            string
	Root            string
	SearchVariable  string
	SearchValue     string
	ExamplesSkipped bool
}

// FormatPlan renders the steps a run would execute without running them
func FormatPlan(info PlanInfo, steps []types.Step) string {
	var b strings.Builder

	header := table.NewWriter()
	header.SetStyle(table.StyleLight)
	header.SetTitle(fmt.Sprintf("Plan %s", info.Name))
	header.AppendRow(table.Row{"root", info.Root})
	if info.SearchVariable != "" {
		header.AppendRow(table.Row{info.SearchVariable, info.SearchValue})
	}
	header.AppendRow(table.Row{"examples", examplesState(info.ExamplesSkipped)})
	b.WriteString(header.Render())
	b.WriteString("\n")

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Kind", "Dir", "Command"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "Command", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})
	for _, s := range steps {
		t.AppendRow(table.Row{s.Index, s.Kind, s.Dir, s.String()})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")

	return b.String()
}

func examplesState(skipped bool) string {
	if skipped {
		return "skipped"
	}
	return "enabled"
}
