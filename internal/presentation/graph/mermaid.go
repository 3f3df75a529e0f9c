package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

// Overlay marks nodes to highlight on the chart.
type Overlay struct {
	// Selected is the node being edited or inspected.
	Selected string
	// Unreachable lists questions no answer leads to.
	Unreachable []string
}

// GenerateMermaid produces a Mermaid flowchart of a questionnaire. Questions are
// numbered by their position in the node list, the way navigation refers to them.
// Shapes follow the question type:
// - yes-no: {Rhombus}
// - choice types: [/Parallelogram/]
// - text-input: [Rectangle]
// - section: [[Subroutine]]
// The editing node is left out. Edge labels are the answers.
func GenerateMermaid(snap graph.Snapshot, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	skip := map[string]bool{}
	for i, node := range snap.Nodes {
		if node.Type == domain.KindEditingQuestion {
			skip[node.ID] = true
			continue
		}
		safeID := sanitizeMermaidID(node.ID)
		opener, closer := shape(node)
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, escape(label(i, node)), closer))
	}

	for _, e := range snap.Edges {
		if skip[e.Source] || skip[e.Target] || snap.IndexOf(e.Source) < 0 || snap.IndexOf(e.Target) < 0 {
			continue
		}
		arrow := "-->"
		if e.Label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(e.Label))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(e.Source), arrow, sanitizeMermaidID(e.Target)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef unreachable fill:#ffebee,stroke:#c62828,stroke-dasharray:4 2,color:#000;\n")
		sb.WriteString("    classDef selected fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, id := range overlay.Unreachable {
			safeID := sanitizeMermaidID(id)
			if !seen[safeID] && safeID != "" && snap.IndexOf(id) >= 0 {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s unreachable;\n", safeID))
			}
		}
		if overlay.Selected != "" && snap.IndexOf(overlay.Selected) >= 0 {
			sb.WriteString(fmt.Sprintf("    class %s selected;\n", sanitizeMermaidID(overlay.Selected)))
		}
	}

	return sb.String()
}

func shape(n domain.Node) (string, string) {
	switch {
	case n.Type == domain.KindSection:
		return "[[", "]]"
	case n.Data.QuestionType == domain.QuestionYesNo:
		return "{", "}"
	case n.Data.QuestionType.HasOptions():
		return "[/", "/]"
	}
	return "[", "]"
}

func label(i int, n domain.Node) string {
	if n.Type == domain.KindSection {
		name := n.Data.SectionName
		if name == "" {
			name = "Section"
		}
		return name
	}
	q := n.Data.Question
	if q == "" {
		q = "Untitled Question"
	}
	return fmt.Sprintf("Q%d: %s", i+1, q)
}

// escape replaces double quotes, which end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return "n" + s
}
