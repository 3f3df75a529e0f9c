package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/graph"
)

// Table renders the questionnaire table view as markdown: one block of rows per
// question with its answers and where each one navigates.
func Table(snap graph.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("| S.No | Question | Option | Navigation |\n")
	sb.WriteString("|---|---|---|---|\n")

	for _, q := range snap.Questions() {
		text := q.Data.Question
		if strings.TrimSpace(text) == "" {
			text = "Untitled Question"
		}
		conns, err := graph.Resolve(snap, q.ID)
		if err != nil {
			continue
		}

		number := fmt.Sprintf("%d", snap.IndexOf(q.ID)+1)
		if len(conns) == 0 {
			fmt.Fprintf(&sb, "| %s | %s | | %s |\n", number, cell(text), graph.NavigateDefault)
			continue
		}
		for i, c := range conns {
			num, question := "", ""
			if i == 0 {
				num, question = number, cell(text)
			}
			fmt.Fprintf(&sb, "| %s | %s | %d. %s | %s |\n", num, question, i+1, cell(c.Label), c.Navigation())
		}
	}
	return sb.String()
}

func cell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
