package dsl

import (
	"errors"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/graph"
)

func TestBuilder_SimpleFlow(t *testing.T) {
	// 1. Build the questionnaire using DSL
	b := New()

	b.Add("1").
		Question("Do you smoke?").
		YesNo().
		Required().
		Yes("2").
		No("3")

	b.Add("2").
		Question("How many per day?").
		Go("3")

	b.Add("3").
		Question("Preferred contact").
		Choice(domain.QuestionRadio, "Phone", "Email")

	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	// 2. Verify nodes keep insertion order and get a column layout
	if len(doc.Nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(doc.Nodes))
	}
	for i, want := range []string{"1", "2", "3"} {
		if doc.Nodes[i].ID != want {
			t.Errorf("Expected node %d to be '%s', got '%s'", i, want, doc.Nodes[i].ID)
		}
	}
	if got := doc.Nodes[2].Position; got.X != 100 || got.Y != 500 {
		t.Errorf("Expected third node at (100, 500), got %+v", got)
	}
	if !doc.Nodes[0].Data.IsRequired || doc.Nodes[0].Data.QuestionType != domain.QuestionYesNo {
		t.Errorf("Unexpected data for node 1: %+v", doc.Nodes[0].Data)
	}
	if doc.Nodes[1].Data.QuestionType != domain.QuestionText {
		t.Errorf("Expected default question type text-input, got '%s'", doc.Nodes[1].Data.QuestionType)
	}

	// 3. Verify routes are labelled like editor edges
	if len(doc.Edges) != 3 {
		t.Fatalf("Expected 3 edges, got %d", len(doc.Edges))
	}
	labels := map[string]string{}
	for _, e := range doc.Edges {
		labels[e.Source+":"+e.SourceHandle] = e.Label
	}
	if labels["1:yes"] != domain.LabelYes || labels["1:no"] != domain.LabelNo {
		t.Errorf("Unexpected yes/no labels: %v", labels)
	}
	if labels["2:text-output"] != domain.LabelAnyText {
		t.Errorf("Expected 'Any Text' label, got '%s'", labels["2:text-output"])
	}

	// 4. Navigation resolves against the built document
	conns, err := graph.Resolve(graph.Snapshot{Nodes: doc.Nodes, Edges: doc.Edges}, "1")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if conns[0].Navigation() != "Move to Q2" || conns[1].Navigation() != "Move to Q3" {
		t.Errorf("Unexpected navigation: %v / %v", conns[0].Navigation(), conns[1].Navigation())
	}
}

func TestBuilder_OptionsAndSections(t *testing.T) {
	b := New()
	b.Add("section-1").Section("Demographics", 2).At(400, 50)
	b.Add("1").
		Question("Pick one").
		Choice(domain.QuestionCheckbox).
		Option(1, "2").
		AllSelected("2")
	b.Add("2").Question("Done")

	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	section := doc.Nodes[0]
	if section.Type != domain.KindSection || section.Data.SectionName != "Demographics" || section.Data.Weight != 2 {
		t.Errorf("Unexpected section: %+v", section)
	}
	if section.Position.X != 400 || section.Position.Y != 50 {
		t.Errorf("Expected explicit position to be kept, got %+v", section.Position)
	}

	choice := doc.Nodes[1]
	if len(choice.Data.Options) != 2 || choice.Data.Options[1] != "Option 2" {
		t.Errorf("Expected default options, got %v", choice.Data.Options)
	}
	if doc.Edges[0].Label != "Option 2" {
		t.Errorf("Expected option edge label 'Option 2', got '%s'", doc.Edges[0].Label)
	}
	if doc.Edges[1].Label != domain.LabelAllSelected {
		t.Errorf("Expected '%s', got '%s'", domain.LabelAllSelected, doc.Edges[1].Label)
	}
}

func TestBuilder_AddReturnsExisting(t *testing.T) {
	b := New()
	first := b.Add("1").Question("Original")
	second := b.Add("1")
	if first != second {
		t.Fatal("Expected Add to return the existing builder")
	}
	second.Question("Changed")

	doc, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Data.Question != "Changed" {
		t.Errorf("Unexpected nodes: %+v", doc.Nodes)
	}
}

func TestBuilder_MissingTarget(t *testing.T) {
	b := New()
	b.Add("1").Question("Where to?").Go("ghost")

	_, err := b.Build()
	if !errors.Is(err, domain.ErrNodeNotFound) {
		t.Fatalf("Expected ErrNodeNotFound, got %v", err)
	}
}

func TestBuilder_InvalidHandle(t *testing.T) {
	b := New()
	b.Add("1").Question("A").On("sideways", "2")
	b.Add("2").Question("B")

	if _, err := b.Build(); err == nil {
		t.Fatal("Expected an error for an unknown handle")
	}
}

func TestBuilder_Empty(t *testing.T) {
	doc, err := New().Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if doc.Nodes == nil || doc.Edges == nil {
		t.Error("Expected non-nil node and edge lists")
	}
}
