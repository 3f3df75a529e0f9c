package editor

import (
	"time"

	"github.com/aretw0/lattice/pkg/domain"
)

// Mode describes what the editor was opened for.
type Mode struct {
	// ScenarioID is set when editing or viewing a published scenario.
	ScenarioID string `json:"scenarioId,omitempty"`
	Version    string `json:"version,omitempty"`
	// TemplateID is the draft being edited. It becomes the draft id on save.
	TemplateID string `json:"templateId,omitempty"`
	// View opens the scenario read-only.
	View bool `json:"view,omitempty"`
}

// IsEdit reports whether saves update an existing scenario.
func (m Mode) IsEdit() bool {
	return m.ScenarioID != "" && !m.View
}

// IsView reports whether the questionnaire is read-only.
func (m Mode) IsView() bool {
	return m.ScenarioID != "" && m.View
}

// AddQuestionKind selects the variant of AddQuestionInput.
type AddQuestionKind string

const (
	// AddFromTrigger is a plain "add question" action.
	AddFromTrigger AddQuestionKind = "trigger"
	// AddWithMetadata comes from the start dialog and carries the template metadata.
	AddWithMetadata AddQuestionKind = "metadata"
)

// AddQuestionInput starts composing a new question.
type AddQuestionInput struct {
	Kind     AddQuestionKind      `json:"kind"`
	Metadata domain.MetadataInput `json:"metadata,omitempty"`
}

// Outcome of a save.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Navigation after a successful save.
const (
	NavigateTo    = "/templates"
	NavigateAfter = 500 * time.Millisecond
)

// Default save messages used when the remote service sends none.
const (
	MessageCreated         = "Template created successfully!"
	MessageUpdated         = "Questionnaire updated successfully!"
	MessageSaveFailed      = "Failed to save questionnaire"
	MessageMetadataUpdated = "Template metadata updated successfully!"
)

// SaveResult reports the outcome of Save.
type SaveResult struct {
	Outcome       Outcome                `json:"outcome"`
	Message       string                 `json:"message"`
	ErrorKind     domain.RemoteErrorKind `json:"errorKind,omitempty"`
	ScenarioID    string                 `json:"scenarioId,omitempty"`
	NavigateTo    string                 `json:"navigateTo,omitempty"`
	NavigateAfter time.Duration          `json:"navigateAfter,omitempty"`
}

// Catalog holds the remote facility types and service lines.
type Catalog struct {
	FacilityTypes []domain.CatalogEntry `json:"facilityTypes"`
	ServiceLines  []domain.CatalogEntry `json:"serviceLines"`
}

// ids maps display names to catalog ids. Unknown names are dropped.
func ids(entries []domain.CatalogEntry, names []string) []string {
	out := []string{}
	for _, name := range names {
		for _, e := range entries {
			if e.Name == name {
				out = append(out, e.ID)
				break
			}
		}
	}
	return out
}

// names maps catalog ids back to display names. Unknown ids are dropped.
func names(entries []domain.CatalogEntry, ids []string) []string {
	out := []string{}
	for _, id := range ids {
		for _, e := range entries {
			if e.ID == id {
				out = append(out, e.Name)
				break
			}
		}
	}
	return out
}
