package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"storyforge/internal/preview"
	"storyforge/internal/validate"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	detailIndent = lipgloss.NewStyle().PaddingLeft(2)
)

// renderDiagnostics prints a validation outcome's diagnostics with
// severity coloring.
func renderDiagnostics(diags []validate.Diagnostic) string {
	if len(diags) == 0 {
		return okStyle.Render("no diagnostics")
	}
	var b strings.Builder
	for _, d := range diags {
		line := d.String()
		switch d.Severity {
		case validate.SeverityError:
			b.WriteString(errorStyle.Render("✗") + " " + line)
		case validate.SeverityWarning:
			b.WriteString(warnStyle.Render("!") + " " + line)
		default:
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderOutcome summarizes a validation outcome.
func renderOutcome(outcome validate.Outcome) string {
	var b strings.Builder
	if outcome.IsValid {
		b.WriteString(okStyle.Render("valid"))
	} else {
		b.WriteString(errorStyle.Render(fmt.Sprintf("invalid (%d error(s))", outcome.ErrorCount())))
	}
	if outcome.RepairedArtifact != "" {
		b.WriteString(dimStyle.Render("  [auto-repaired]"))
	}
	if len(outcome.Diagnostics) > 0 {
		b.WriteString("\n")
		b.WriteString(detailIndent.Render(renderDiagnostics(outcome.Diagnostics)))
	}
	return b.String()
}

// renderRuntime summarizes a runtime verification result.
func renderRuntime(res preview.RuntimeCheckResult) string {
	switch res.State {
	case preview.StateVerified:
		return okStyle.Render("verified") + dimStyle.Render(fmt.Sprintf("  (%s, %d poll(s))", res.StoryID, res.Attempts))
	case preview.StateSkipped:
		return dimStyle.Render("verification skipped")
	case preview.StateNotFound:
		return errorStyle.Render("not found") + "\n" +
			detailIndent.Render(dimStyle.Render(res.RenderError))
	case preview.StateRenderFailed:
		return errorStyle.Render(fmt.Sprintf("render failed (%s)", res.ErrorKind)) + "\n" +
			detailIndent.Render(res.RenderError)
	default:
		return dimStyle.Render(string(res.State))
	}
}
