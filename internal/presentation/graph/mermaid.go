package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cardflow/pkg/card"
	"github.com/aretw0/cardflow/pkg/domain"
)

// GraphOverlay carries editor state to visualize on the graph.
type GraphOverlay struct {
	// Focus is the selected card; its outgoing and incoming neighbours are highlighted.
	Focus string
	// Issues marks the cards that have at least one issue.
	Issues []domain.Issue
}

// GenerateMermaid produces a Mermaid flowchart from the cards, in authoring order.
// It applies semantic styling:
// - End: ((Circle))
// - Menu: {Rhombus}
// - Webhook: [[Subroutine]]
// - Unsupported: [/Parallelogram/]
// - Default: [Rectangle]
// Secondary references carry their label on the edge. References to ids not
// in the flow are drawn as dotted edges to a placeholder node.
func GenerateMermaid(cards []card.Card, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	known := make(map[string]bool, len(cards))
	for _, c := range cards {
		known[c.ID()] = true
	}
	missing := map[string]bool{}

	for _, c := range cards {
		safeID := sanitizeMermaidID(c.ID())
		opener, closer := shape(c.Type())
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(displayName(c)), closer)

		for i, ref := range c.References() {
			if !ref.IsSet() {
				continue
			}
			safeTo := sanitizeMermaidID(ref.Target)
			if !known[ref.Target] {
				safeTo = "missing_" + safeTo
				if !missing[ref.Target] {
					missing[ref.Target] = true
					fmt.Fprintf(&sb, "    %s>\"%s ?\"]\n", safeTo, escapeLabel(ref.Target))
				}
				fmt.Fprintf(&sb, "    %s -.-> %s\n", safeID, safeTo)
				continue
			}
			if i == 0 {
				fmt.Fprintf(&sb, "    %s --> %s\n", safeID, safeTo)
			} else {
				fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, escapeLabel(ref.Label), safeTo)
			}
		}
	}

	if overlay != nil {
		writeOverlay(&sb, cards, overlay)
	}

	return sb.String()
}

func writeOverlay(sb *strings.Builder, cards []card.Card, overlay *GraphOverlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text (color:#000) for contrast on both light and dark themes.
	sb.WriteString("    classDef broken fill:#ffebee,stroke:#c62828,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef outgoing fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef incoming fill:#f3e5f5,stroke:#6a1b9a,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef focus fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	broken := map[string]bool{}
	for _, issue := range overlay.Issues {
		if issue.CardID == "" || broken[issue.CardID] {
			continue
		}
		broken[issue.CardID] = true
		fmt.Fprintf(sb, "    class %s broken;\n", sanitizeMermaidID(issue.CardID))
	}

	if overlay.Focus == "" {
		return
	}
	var focus card.Card
	for _, c := range cards {
		if c.ID() == overlay.Focus {
			focus = c
			break
		}
	}
	if focus == nil {
		return
	}
	for _, c := range focus.ResolveOutgoing() {
		if c.ID() != focus.ID() {
			fmt.Fprintf(sb, "    class %s outgoing;\n", sanitizeMermaidID(c.ID()))
		}
	}
	for _, c := range focus.ResolveIncoming() {
		if c.ID() != focus.ID() {
			fmt.Fprintf(sb, "    class %s incoming;\n", sanitizeMermaidID(c.ID()))
		}
	}
	fmt.Fprintf(sb, "    class %s focus;\n", sanitizeMermaidID(focus.ID()))
}

func shape(cardType string) (string, string) {
	switch cardType {
	case domain.CardTypeEnd:
		return "((", "))"
	case domain.CardTypeMenu:
		return "{", "}"
	case domain.CardTypeWebhook:
		return "[[", "]]"
	case domain.CardTypeSendMessage, domain.CardTypeSendMediaMessage:
		return "[", "]"
	default:
		return "[/", "/]"
	}
}

func displayName(c card.Card) string {
	if strings.TrimSpace(c.Name()) != "" {
		return c.Name()
	}
	if c.ID() != "" {
		return c.ID()
	}
	return "(unnamed)"
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
