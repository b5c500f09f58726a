// cmd/display.go

package cmd

import (
	"strings"

	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/duplicates"
	"github.com/CodeMonkeyCybersecurity/agentdedup/pkg/logger"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

var (
	colorSuccess = lipgloss.Color("#00ff00")
	colorWarning = lipgloss.Color("#ffaa00")
	colorError   = lipgloss.Color("#ff0000")
	colorMuted   = lipgloss.Color("#666666")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// summaryColor picks the panel border: red on errors, orange for a dry run
// with pending removals, green otherwise.
func summaryColor(r *duplicates.RunResult) lipgloss.Color {
	switch {
	case r.Errors > 0 || r.Stage == duplicates.StageFailed:
		return colorError
	case r.DryRun && r.WouldRemove > 0:
		return colorWarning
	default:
		return colorSuccess
	}
}

// reportSummary emits the run summary as a terminal prompt: the console
// prints the panel as plain text and the run file keeps the same entry.
func reportSummary(log *zap.Logger, r *duplicates.RunResult, logPath string) {
	if r == nil {
		return
	}
	fields := []zap.Field{
		zap.String("output", panelStyle.BorderForeground(summaryColor(r)).Render(strings.TrimRight(r.FormatSummary(), "\n"))),
		zap.String("stage", string(r.Stage)),
	}
	if logPath != "" {
		fields = append(fields, zap.String("full_log", footerStyle.Render(logPath)))
	}
	log.Info(logger.TerminalPrefix+" Run summary", fields...)
}
