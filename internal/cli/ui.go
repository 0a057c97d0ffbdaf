package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	api "github.com/studio-labs/assessor/api/v1alpha1"
	"github.com/studio-labs/assessor/internal/submission"
)

const progressBarWidth = 30

var (
	botStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	barFillStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	barRestStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	decisionStyles = map[api.Decision]lipgloss.Style{
		api.DecisionBuy:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		api.DecisionHold: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		api.DecisionSell: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	resultBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// progressBar renders p as a single line without a trailing newline.
func progressBar(p submission.Progress) string {
	filled := int(p.Percentage / 100 * progressBarWidth)
	filled = max(0, min(filled, progressBarWidth))

	bar := barFillStyle.Render(strings.Repeat("█", filled)) + barRestStyle.Render(strings.Repeat("░", progressBarWidth-filled))
	line := fmt.Sprintf("%s %3.0f%% %s", bar, p.Percentage, p.Message)
	if p.EstimatedSecondsRemaining > 0 {
		line += mutedStyle.Render(fmt.Sprintf(" (~%ds left)", p.EstimatedSecondsRemaining))
	}
	return line
}

// progressPrinter redraws the bar in place.
func progressPrinter(w io.Writer) func(submission.Progress) {
	return func(p submission.Progress) {
		fmt.Fprintf(w, "\r\033[K%s", progressBar(p))
	}
}

func renderAssessment(a api.Assessment) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s %s\n", botStyle.Render(a.Symbol), a.Amount.StringFixed(2), mutedStyle.Render(a.Id.String()))

	if a.AssessmentData == nil {
		fmt.Fprintf(&sb, "status: %s", a.Status)
		return resultBox.Render(sb.String())
	}

	d := a.AssessmentData
	style, ok := decisionStyles[d.Decision]
	if !ok {
		style = lipgloss.NewStyle()
	}
	fmt.Fprintf(&sb, "decision:   %s\n", style.Render(strings.ToUpper(string(d.Decision))))
	fmt.Fprintf(&sb, "confidence: %d%%\n", d.Confidence)
	fmt.Fprintf(&sb, "risk score: %d/10", d.RiskScore)
	if d.Narrative != "" {
		fmt.Fprintf(&sb, "\n\n%s", lipgloss.NewStyle().Width(60).Render(d.Narrative))
	}
	if len(d.KeyFactors) > 0 {
		sb.WriteString("\n")
		for _, f := range d.KeyFactors {
			fmt.Fprintf(&sb, "\n• %s", f)
		}
	}
	return resultBox.Render(sb.String())
}
