package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/validation"
)

// Offsets used when placing questions.
var (
	commitOffset      = domain.Position{X: 50, Y: 50}
	belowOffset       = domain.Position{X: 0, Y: 200}
	unanchoredDefault = domain.Position{X: 100, Y: 100}
)

// AddQuestion opens the editing node. With metadata from the start dialog the
// metadata is validated, stored and backed up first; a plain trigger requires
// metadata to be set already, except when editing a published scenario.
// It returns the id of the editing node.
func (e *Editor) AddQuestion(ctx context.Context, in AddQuestionInput) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return "", err
	}

	switch in.Kind {
	case AddWithMetadata:
		meta, err := e.cleanMetadata(in.Metadata)
		if err != nil {
			return "", err
		}
		if err := e.meta.Set(ctx, meta); err != nil {
			return "", err
		}
		e.startCompleted = true
	case AddFromTrigger, "":
		if _, ok := e.meta.Get(); !ok && !e.mode.IsEdit() {
			return "", &domain.PreconditionError{Err: domain.ErrMetadataRequired, ReopenDialog: true}
		}
	default:
		return "", &domain.ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", in.Kind)}
	}

	return e.openEditing()
}

// openEditing places a fresh editing node. Caller holds mu.
func (e *Editor) openEditing() (string, error) {
	pos := graph.FindOptimalPosition(withoutEditing(e.graph.Snapshot().Nodes))
	return e.graph.AddNodeAt(domain.KindEditingQuestion, domain.NodeData{
		QuestionType:  domain.QuestionText,
		Options:       domain.DefaultOptions(),
		IsNewQuestion: true,
	}, pos)
}

// CommitQuestion replaces the editing node with a question built from data,
// placed at the best free position offset by (50, 50).
func (e *Editor) CommitQuestion(data domain.NodeData) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return "", err
	}

	data, err := e.questionData(data)
	if err != nil {
		return "", err
	}

	nodes := withoutEditing(e.graph.Snapshot().Nodes)
	pos := graph.FindOptimalPosition(nodes)
	pos.X += commitOffset.X
	pos.Y += commitOffset.Y

	if _, ok := e.graph.Snapshot().Node(domain.EditingNodeID); ok {
		if err := e.graph.DeleteNode(domain.EditingNodeID); err != nil {
			return "", err
		}
	}
	return e.graph.AddNodeAt(domain.KindQuestion, data, pos)
}

// CancelQuestion discards the editing node, if any.
func (e *Editor) CancelQuestion() error {
	return e.edit(func() error {
		if _, ok := e.graph.Snapshot().Node(domain.EditingNodeID); !ok {
			return nil
		}
		return e.graph.DeleteNode(domain.EditingNodeID)
	})
}

// AddQuestionAfter inserts a question 200 units below afterID, or at (100, 100)
// when afterID is empty or unknown.
func (e *Editor) AddQuestionAfter(afterID string, data domain.NodeData) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return "", err
	}

	data, err := e.questionData(data)
	if err != nil {
		return "", err
	}

	pos := unanchoredDefault
	if after, ok := e.graph.Snapshot().Node(afterID); ok && afterID != "" {
		pos = domain.Position{X: after.Position.X + belowOffset.X, Y: after.Position.Y + belowOffset.Y}
	}
	return e.graph.AddNodeAt(domain.KindQuestion, data, pos)
}

// AddSection adds an unnamed section of weight 1 at the best free position.
func (e *Editor) AddSection() (string, error) {
	var id string
	err := e.edit(func() error {
		var err error
		id, err = e.graph.AddNode(domain.KindSection, domain.NodeData{Weight: 1})
		return err
	})
	return id, err
}

// questionData sanitizes and completes the data of a committed question.
func (e *Editor) questionData(data domain.NodeData) (domain.NodeData, error) {
	data, err := e.cleanData(data)
	if err != nil {
		return data, err
	}
	if strings.TrimSpace(data.Question) == "" {
		return data, &domain.ValidationError{Field: "question", Reason: "is required"}
	}
	if data.QuestionType == "" {
		data.QuestionType = domain.QuestionText
	}
	if !data.QuestionType.Valid() {
		return data, &domain.ValidationError{Field: "questionType", Reason: fmt.Sprintf("unknown question type %q", data.QuestionType)}
	}
	if data.QuestionType.HasOptions() && len(data.Options) == 0 && data.QuestionType != domain.QuestionYesNo {
		data.Options = domain.DefaultOptions()
	}
	data.IsNewQuestion = false
	return data, nil
}

// cleanMetadata validates the start-dialog form.
func (e *Editor) cleanMetadata(in domain.MetadataInput) (domain.TemplateMetadata, error) {
	name, err := e.clean("templateName", in.TemplateName)
	if err != nil {
		return domain.TemplateMetadata{}, err
	}
	in.TemplateName = strings.TrimSpace(name)
	if err := validation.Struct(in); err != nil {
		return domain.TemplateMetadata{}, err
	}
	return in.Metadata(), nil
}

func withoutEditing(nodes []domain.Node) []domain.Node {
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.ID != domain.EditingNodeID {
			out = append(out, n)
		}
	}
	return out
}
