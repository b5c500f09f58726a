// pkg/duplicates/summary.go

package duplicates

import (
	"fmt"
	"strings"
)

// FormatSummary renders the run result as plain text for the terminal.
func (r *RunResult) FormatSummary() string {
	var b strings.Builder

	title := "Duplicate agent removal summary"
	if r.DryRun {
		title += " (dry run)"
	}
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n")

	row := func(label string, v interface{}) {
		fmt.Fprintf(&b, "  %-18s %v\n", label+":", v)
	}
	row("Agents fetched", r.Fetched)
	row("Duplicate groups", r.Groups)
	row("Agents kept", r.Kept)
	if r.DryRun {
		row("Would remove", r.WouldRemove)
	} else {
		row("Removed", r.Removed)
		row("Already gone", r.AlreadyGone)
	}
	row("Errors", r.Errors)
	row("Final stage", r.Stage)

	if failed := r.Failed(); len(failed) > 0 {
		b.WriteString("\nFailed removals:\n")
		for _, d := range failed {
			fmt.Fprintf(&b, "  - %s (%s, %s): %v\n", d.Agent.ID, d.Agent.Hostname, d.Agent.Address, d.Err)
		}
	}
	return b.String()
}
