package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
// The style follows the terminal background.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IssueReport formats the issues of a flow as markdown, grouped by kind.
func IssueReport(flowID string, issues []domain.Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", flowID)
	if len(issues) == 0 {
		sb.WriteString("No issues found.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d issue(s) found.\n\n", len(issues))
	sb.WriteString("| Card | Kind | Message |\n")
	sb.WriteString("|------|------|---------|\n")
	for _, issue := range issues {
		name := issue.CardName
		if name == "" {
			name = issue.CardID
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", escapeCell(name), issue.Kind, escapeCell(issue.Message))
	}
	return sb.String()
}

// PlainIssues formats the issues one per line, as printed when stdout is not a terminal.
func PlainIssues(issues []domain.Issue) string {
	var sb strings.Builder
	for _, issue := range issues {
		sb.WriteString(issue.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
