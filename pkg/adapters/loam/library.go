package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// Library adapts a Loam repository of template documents to ports.TemplateSource.
type Library struct {
	Repo *loam.TypedRepository[TemplateRecord]
}

// New creates a library over an existing typed repository.
func New(repo *loam.TypedRepository[TemplateRecord]) *Library {
	return &Library{Repo: repo}
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string) (*Library, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	// Strict mode gives consistent json.Number values across JSON and YAML.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateRecord](repo)), nil
}

// GetTemplate returns the template with the given id. Ids are file names without
// extension unless the document declares its own.
func (l *Library) GetTemplate(ctx context.Context, id string) (domain.Draft, error) {
	doc, err := l.Repo.Get(ctx, id)
	if err == nil {
		return toDraft(doc.ID, doc.Data, doc.Content)
	}

	// Declared ids don't have to match the file name.
	docs, listErr := l.Repo.List(ctx)
	if listErr != nil {
		return domain.Draft{}, fmt.Errorf("loam list failed: %w", listErr)
	}
	for _, d := range docs {
		if recordID(d.ID, d.Data) == id {
			return l.fetch(ctx, d.ID)
		}
	}
	return domain.Draft{}, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
}

// ListTemplates returns all templates ordered by id.
func (l *Library) ListTemplates(ctx context.Context) ([]domain.Draft, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]domain.Draft, 0, len(docs))
	for _, doc := range docs {
		id := recordID(doc.ID, doc.Data)
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID

		d, err := l.fetch(ctx, doc.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fetch reads one document in full. List results carry no markdown body.
func (l *Library) fetch(ctx context.Context, docID string) (domain.Draft, error) {
	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("loam get failed for %s: %w", docID, err)
	}
	return toDraft(doc.ID, doc.Data, doc.Content)
}

func recordID(docID string, rec TemplateRecord) string {
	if rec.ID != "" {
		return trimExtension(rec.ID)
	}
	return trimExtension(docID)
}

func toDraft(docID string, rec TemplateRecord, content string) (domain.Draft, error) {
	id := recordID(docID, rec)

	d := domain.Draft{
		ID:               id,
		Name:             rec.Name,
		Description:      rec.Description,
		Status:           domain.DraftStatusInProgress,
		TemplateName:     rec.TemplateName,
		FacilityTypes:    rec.FacilityTypes,
		FacilityServices: rec.FacilityServices,
		Nodes:            []domain.Node{},
		Edges:            []domain.Edge{},
	}
	if d.Name == "" {
		d.Name = id
	}
	if d.Description == "" {
		d.Description = strings.TrimSpace(content)
	}

	if err := decode(rec.Nodes, &d.Nodes); err != nil {
		return domain.Draft{}, fmt.Errorf("template %s: invalid nodes: %w", id, err)
	}
	if err := decode(rec.Edges, &d.Edges); err != nil {
		return domain.Draft{}, fmt.Errorf("template %s: invalid edges: %w", id, err)
	}
	return d, nil
}

// decode maps loosely typed document values onto domain structs. Weak typing
// accepts numeric ids written without quotes.
func decode(in []any, out any) error {
	if len(in) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
