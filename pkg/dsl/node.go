package dsl

import (
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	routes  []graph.Link
	placed  bool
}

// Question sets the text of the node and marks it as a question. The question
// type defaults to free text.
func (n *NodeBuilder) Question(text string) *NodeBuilder {
	n.node.Type = domain.KindQuestion
	n.node.Data.Question = text
	if n.node.Data.QuestionType == "" {
		n.node.Data.QuestionType = domain.QuestionText
	}
	return n
}

// YesNo makes the node a yes-no question.
func (n *NodeBuilder) YesNo() *NodeBuilder {
	n.node.Data.QuestionType = domain.QuestionYesNo
	n.node.Data.Options = nil
	return n
}

// Choice sets a choice question type and its options. Without options the
// default two are used.
func (n *NodeBuilder) Choice(qt domain.QuestionType, options ...string) *NodeBuilder {
	n.node.Data.QuestionType = qt
	if len(options) == 0 && qt.HasOptions() && qt != domain.QuestionYesNo {
		options = domain.DefaultOptions()
	}
	n.node.Data.Options = append([]string(nil), options...)
	return n
}

// Required marks the question as requiring an answer.
func (n *NodeBuilder) Required() *NodeBuilder {
	n.node.Data.IsRequired = true
	return n
}

// Section marks the node as a section with a name and weight.
func (n *NodeBuilder) Section(name string, weight float64) *NodeBuilder {
	n.node.Type = domain.KindSection
	n.node.Data = domain.NodeData{SectionName: name, Weight: weight}
	return n
}

// At places the node on the canvas.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	n.placed = true
	return n
}

// On routes an output handle to the target node.
func (n *NodeBuilder) On(handle, target string) *NodeBuilder {
	n.routes = append(n.routes, graph.Link{Source: n.node.ID, Target: target, SourceHandle: handle})
	return n
}

// Option routes the answer at index i (0-based) to the target node.
func (n *NodeBuilder) Option(i int, target string) *NodeBuilder {
	return n.On(domain.OptionHandle(i), target)
}

// Yes routes the yes answer to the target node.
func (n *NodeBuilder) Yes(target string) *NodeBuilder {
	return n.On(domain.HandleYesID, target)
}

// No routes the no answer to the target node.
func (n *NodeBuilder) No(target string) *NodeBuilder {
	return n.On(domain.HandleNoID, target)
}

// AllSelected routes the all-selected output of a checkbox question.
func (n *NodeBuilder) AllSelected(target string) *NodeBuilder {
	return n.On(domain.HandleMultiAllID, target)
}

// Go routes any free-text answer to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.On(domain.HandleTextOutputID, target)
}

// Build returns the underlying domain.Node.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
