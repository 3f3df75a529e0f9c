package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

// Report lists the problems found in a questionnaire. Errors make the document
// unusable; warnings are worth a look but do not block saving.
type Report struct {
	Errors   []string
	Warnings []string
	// Unreachable lists the ids of questions no answer leads to.
	Unreachable []string
}

// Err returns the errors as a single error, or nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

// ValidateQuestionnaire checks node and edge integrity and crawls the flow from the
// first question to find questions no answer leads to.
func ValidateQuestionnaire(doc domain.Document) *Report {
	r := &Report{}

	nodes := make(map[string]domain.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if _, dup := nodes[n.ID]; dup {
			r.Errors = append(r.Errors, fmt.Sprintf("Duplicate node id '%s'", n.ID))
		}
		nodes[n.ID] = n
		if !n.Type.Valid() {
			r.Errors = append(r.Errors, fmt.Sprintf("Node '%s' has unknown type '%s'", n.ID, n.Type))
			continue
		}
		if n.Type.IsQuestion() {
			if n.Data.QuestionType != "" && !n.Data.QuestionType.Valid() {
				r.Errors = append(r.Errors, fmt.Sprintf("Node '%s' has unknown question type '%s'", n.ID, n.Data.QuestionType))
			}
			if strings.TrimSpace(n.Data.Question) == "" {
				r.Warnings = append(r.Warnings, fmt.Sprintf("Question '%s' has no text", n.ID))
			}
		}
		if n.Type == domain.KindEditingQuestion {
			r.Warnings = append(r.Warnings, fmt.Sprintf("Question '%s' is still being edited", n.ID))
		}
	}

	edgeIDs := make(map[string]bool, len(doc.Edges))
	adjacency := make(map[string][]string)
	for _, e := range doc.Edges {
		if edgeIDs[e.ID] {
			r.Errors = append(r.Errors, fmt.Sprintf("Duplicate edge id '%s'", e.ID))
		}
		edgeIDs[e.ID] = true

		source, ok := nodes[e.Source]
		if !ok {
			r.Errors = append(r.Errors, fmt.Sprintf("Edge '%s' starts at missing node '%s'", e.ID, e.Source))
			continue
		}
		if _, ok := nodes[e.Target]; !ok {
			r.Errors = append(r.Errors, fmt.Sprintf("Edge '%s' points to missing node '%s'", e.ID, e.Target))
			continue
		}
		h, err := domain.ParseHandle(e.SourceHandle)
		if err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("Edge '%s' has invalid handle '%s'", e.ID, e.SourceHandle))
			continue
		}
		if h.Kind == domain.HandleOption && h.Index >= len(source.Data.Options) {
			r.Warnings = append(r.Warnings, fmt.Sprintf("Edge '%s' leaves option %d of '%s' which has only %d options", e.ID, h.Index, e.Source, len(source.Data.Options)))
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
	}

	questions := graph.Snapshot{Nodes: doc.Nodes}.Questions()
	if len(questions) == 0 {
		return r
	}

	visited := map[string]bool{}
	queue := []string{questions[0].ID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if visited[current] {
			continue
		}
		visited[current] = true
		for _, next := range adjacency[current] {
			if !visited[next] {
				queue = append(queue, next)
			}
		}
	}
	for _, q := range questions {
		if !visited[q.ID] {
			r.Unreachable = append(r.Unreachable, q.ID)
			r.Warnings = append(r.Warnings, fmt.Sprintf("Question '%s' is unreachable from '%s'", q.ID, questions[0].ID))
		}
	}
	return r
}
