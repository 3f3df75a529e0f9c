package editor

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/drafts"
)

// Drafts returns the draft repository of the editor.
func (e *Editor) Drafts() *drafts.Repository {
	return e.drafts
}

// SaveDraft stores the questionnaire locally. A questionnaire opened from a
// draft or template keeps that id, and an empty name reuses the stored one;
// otherwise the id is the current time in milliseconds.
func (e *Editor) SaveDraft(ctx context.Context, name, description string) (domain.Draft, error) {
	name, err := e.clean("name", name)
	if err != nil {
		return domain.Draft{}, err
	}
	description, err = e.clean("description", description)
	if err != nil {
		return domain.Draft{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return domain.Draft{}, err
	}

	doc := committedDocument(e.graph.Snapshot().Document())
	if len(doc.Nodes) == 0 {
		return domain.Draft{}, &domain.PreconditionError{Err: domain.ErrNoQuestions}
	}

	id := e.mode.TemplateID
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if id != "" && name == "" {
		if prev, err := e.drafts.Get(ctx, id); err == nil {
			name = prev.Name
			if description == "" {
				description = prev.Description
			}
		} else if !errors.Is(err, domain.ErrDraftNotFound) {
			return domain.Draft{}, err
		}
	}
	if name == "" {
		return domain.Draft{}, &domain.ValidationError{Field: "name", Reason: "is required"}
	}
	if id == "" {
		id = strconv.FormatInt(e.clock().UnixMilli(), 10)
	}

	meta, _ := e.meta.Get()
	saved, err := e.drafts.Upsert(ctx, domain.Draft{
		ID:               id,
		Name:             name,
		Description:      description,
		Nodes:            doc.Nodes,
		Edges:            doc.Edges,
		TemplateName:     meta.TemplateName,
		FacilityTypes:    meta.FacilityTypes,
		FacilityServices: meta.FacilityServices,
	})
	if err != nil {
		return domain.Draft{}, err
	}

	e.mode.TemplateID = saved.ID
	e.logger.Debug("draft saved", "id", saved.ID, "nodes", len(saved.Nodes))
	return saved, nil
}

// LoadDraft opens a draft, or a library template when no draft has that id.
// Its graph and metadata replace the current ones.
func (e *Editor) LoadDraft(ctx context.Context, id string) (domain.Draft, error) {
	d, err := e.drafts.Get(ctx, id)
	if errors.Is(err, domain.ErrDraftNotFound) && e.templates != nil {
		d, err = e.templates.GetTemplate(ctx, id)
	}
	if err != nil {
		return domain.Draft{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return domain.Draft{}, err
	}

	doc := d.Document()
	if err := e.graph.ReplaceAll(doc.Nodes, doc.Edges); err != nil {
		return domain.Draft{}, err
	}
	e.meta.Replace(d.Metadata())
	e.mode.TemplateID = d.ID
	e.startCompleted = true
	return d, nil
}
