package editor

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// remote runs one call to the scenario service and reports it to the hooks.
func (e *Editor) remote(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	if e.hooks.OnRemoteCall != nil {
		e.hooks.OnRemoteCall(ctx, &domain.RemoteEvent{
			Timestamp: start,
			Op:        op,
			Duration:  time.Since(start),
			Err:       err,
		})
	}
	return err
}

// LoadCatalog fetches facility types and service lines concurrently and caches them.
func (e *Editor) LoadCatalog(ctx context.Context) (Catalog, error) {
	if e.api == nil {
		return Catalog{}, domain.ErrRemoteUnavailable
	}

	var cat Catalog
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.remote(gctx, "getAllFacilityTypes", func(ctx context.Context) error {
			var err error
			cat.FacilityTypes, err = e.api.FacilityTypes(ctx)
			return err
		})
	})
	g.Go(func() error {
		return e.remote(gctx, "getServiceLines", func(ctx context.Context) error {
			var err error
			cat.ServiceLines, err = e.api.ServiceLines(ctx)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return Catalog{}, err
	}

	e.mu.Lock()
	e.catalog = &cat
	e.mu.Unlock()
	return cat, nil
}

// ensureCatalog returns the cached catalog, fetching it on first use.
func (e *Editor) ensureCatalog(ctx context.Context) (Catalog, error) {
	e.mu.Lock()
	cached := e.catalog
	e.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}
	return e.LoadCatalog(ctx)
}

// Save publishes the questionnaire. In create mode a new scenario is created
// from the graph and the template metadata; in edit mode the scenario's graph
// is replaced. The editing node is never sent.
//
// Precondition failures are returned as *domain.PreconditionError and leave no
// trace. Remote failures return a failure SaveResult together with the error;
// the graph is untouched either way.
func (e *Editor) Save(ctx context.Context) (SaveResult, error) {
	if e.api == nil {
		return SaveResult{}, domain.ErrRemoteUnavailable
	}

	e.mu.Lock()
	if err := e.writable(); err != nil {
		e.mu.Unlock()
		return SaveResult{}, err
	}
	doc := committedDocument(e.graph.Snapshot().Document())
	mode := e.mode
	meta, metaSet := e.meta.Get()
	e.mu.Unlock()

	if len(doc.Nodes) == 0 {
		return SaveResult{}, &domain.PreconditionError{Err: domain.ErrNoQuestions}
	}
	if !mode.IsEdit() && (!metaSet || !meta.Complete()) {
		return SaveResult{}, &domain.PreconditionError{Err: domain.ErrMetadataRequired, ReopenDialog: true}
	}
	if !meta.HasName() {
		return SaveResult{}, &domain.PreconditionError{Err: domain.ErrTemplateNameRequired, ReopenDialog: true}
	}

	if !e.saving.CompareAndSwap(false, true) {
		return SaveResult{}, &domain.PreconditionError{Err: domain.ErrSaveInProgress}
	}
	defer e.saving.Store(false)

	if mode.IsEdit() {
		return e.update(ctx, mode, doc)
	}
	return e.create(ctx, meta, doc)
}

// Saving reports whether a save is in flight.
func (e *Editor) Saving() bool {
	return e.saving.Load()
}

func (e *Editor) create(ctx context.Context, meta domain.TemplateMetadata, doc domain.Document) (SaveResult, error) {
	cat, err := e.ensureCatalog(ctx)
	if err != nil {
		return failure(err), err
	}

	in := domain.CreateScenarioInput{
		Name: meta.TemplateName,
		Questionnaire: domain.Questionnaire{
			Nodes:         doc.Nodes,
			Edges:         doc.Edges,
			TemplateName:  meta.TemplateName,
			FacilityTypes: meta.FacilityTypes,
			ServiceLines:  meta.FacilityServices,
		},
		Facilities: ids(cat.FacilityTypes, meta.FacilityTypes),
		Services:   ids(cat.ServiceLines, meta.FacilityServices),
	}

	var res domain.MutationResult
	err = e.remote(ctx, "createScenario", func(ctx context.Context) error {
		var err error
		res, err = e.api.CreateScenario(ctx, in)
		return err
	})
	if err != nil {
		e.logger.Warn("create scenario failed", "template", meta.TemplateName, "err", err)
		return failure(err), err
	}

	out := success(res.Message, MessageCreated)
	if res.Scenario != nil {
		out.ScenarioID = res.Scenario.ID
		e.mu.Lock()
		e.mode.ScenarioID = res.Scenario.ID
		e.mode.Version = res.Scenario.Version
		e.mu.Unlock()
	}
	return out, nil
}

func (e *Editor) update(ctx context.Context, mode Mode, doc domain.Document) (SaveResult, error) {
	in := domain.UpdateScenarioInput{
		ScenarioID:    mode.ScenarioID,
		Questionnaire: domain.Questionnaire{Nodes: doc.Nodes, Edges: doc.Edges},
	}

	var res domain.MutationResult
	err := e.remote(ctx, "updateScenario", func(ctx context.Context) error {
		var err error
		res, err = e.api.UpdateScenario(ctx, in)
		return err
	})
	if err != nil {
		e.logger.Warn("update scenario failed", "scenario", mode.ScenarioID, "err", err)
		return failure(err), err
	}

	out := success(res.Message, MessageUpdated)
	out.ScenarioID = mode.ScenarioID
	if res.Scenario != nil && res.Scenario.Version != "" {
		e.mu.Lock()
		e.mode.Version = res.Scenario.Version
		e.mu.Unlock()
	}
	return out, nil
}

func success(msg, fallback string) SaveResult {
	if msg == "" {
		msg = fallback
	}
	return SaveResult{
		Outcome:       OutcomeSuccess,
		Message:       msg,
		NavigateTo:    NavigateTo,
		NavigateAfter: NavigateAfter,
	}
}

// failure classifies err the way the operator is told about it.
func failure(err error) SaveResult {
	out := SaveResult{Outcome: OutcomeFailure, Message: MessageSaveFailed, ErrorKind: domain.RemoteGeneric}

	var re *domain.RemoteError
	switch {
	case errors.As(err, &re):
		if re.Kind != "" {
			out.ErrorKind = re.Kind
		}
		switch {
		case re.Kind == domain.RemoteNetwork:
			out.Message = domain.NetworkErrorMessage
		case re.Message != "":
			out.Message = re.Message
		}
	case err != nil && err.Error() != "":
		out.Message = err.Error()
	}
	return out
}

// committedDocument drops the editing node and its edges.
func committedDocument(doc domain.Document) domain.Document {
	out := domain.Document{Nodes: withoutEditing(doc.Nodes), Edges: []domain.Edge{}}
	for _, e := range doc.Edges {
		if !e.Touches(domain.EditingNodeID) {
			out.Edges = append(out.Edges, e)
		}
	}
	return out
}

// LoadScenario fetches a scenario version and makes it the edited document.
// If another load started meanwhile, the result is discarded and ErrStaleLoad
// returned. Metadata changed locally through UpdateMetadata is kept.
func (e *Editor) LoadScenario(ctx context.Context, id, version string) (domain.Scenario, error) {
	if e.api == nil {
		return domain.Scenario{}, domain.ErrRemoteUnavailable
	}
	gen := e.loadGen.Add(1)

	var s domain.Scenario
	err := e.remote(ctx, "getScenarioById", func(ctx context.Context) error {
		var err error
		s, err = e.api.GetScenario(ctx, id, version)
		return err
	})
	if gen != e.loadGen.Load() {
		return domain.Scenario{}, domain.ErrStaleLoad
	}
	if err != nil {
		return domain.Scenario{}, err
	}

	cat, catErr := e.ensureCatalog(ctx)
	if catErr != nil {
		e.logger.Warn("catalog unavailable, keeping stored names", "err", catErr)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.loadGen.Load() {
		return domain.Scenario{}, domain.ErrStaleLoad
	}

	if err := e.graph.ReplaceAll(s.Questionnaire.Nodes, s.Questionnaire.Edges); err != nil {
		return domain.Scenario{}, err
	}

	if !e.metadataLocal || e.mode.ScenarioID != id {
		meta := domain.TemplateMetadata{
			TemplateName:     s.DisplayName(),
			FacilityTypes:    names(cat.FacilityTypes, s.FacilityIDs()),
			FacilityServices: names(cat.ServiceLines, s.ServiceIDs()),
		}
		if len(meta.FacilityTypes) == 0 {
			meta.FacilityTypes = s.Questionnaire.FacilityTypes
		}
		if len(meta.FacilityServices) == 0 {
			meta.FacilityServices = s.Questionnaire.ServiceLines
		}
		e.meta.Replace(meta)
		e.metadataLocal = false
	}

	e.mode.ScenarioID = id
	e.mode.Version = s.Version
	if e.mode.Version == "" {
		e.mode.Version = version
	}
	e.startCompleted = true
	return s, nil
}

// SwitchVersion loads another version of the current scenario.
func (e *Editor) SwitchVersion(ctx context.Context, version string) (domain.Scenario, error) {
	id := e.Mode().ScenarioID
	if id == "" {
		return domain.Scenario{}, &domain.PreconditionError{Err: errors.New("no scenario loaded")}
	}
	return e.LoadScenario(ctx, id, version)
}

// UpdateMetadata applies the edited start-dialog form. When editing a published
// scenario the remote template is updated first; the form values then become
// the local metadata and later loads of the same scenario don't overwrite them.
// Otherwise the change is local and backed up.
func (e *Editor) UpdateMetadata(ctx context.Context, in domain.MetadataInput) (domain.UpdateTemplateResult, error) {
	meta, err := e.cleanMetadata(in)
	if err != nil {
		return domain.UpdateTemplateResult{}, err
	}

	e.mu.Lock()
	if err := e.writable(); err != nil {
		e.mu.Unlock()
		return domain.UpdateTemplateResult{}, err
	}
	mode := e.mode
	e.mu.Unlock()

	if !mode.IsEdit() {
		if err := e.meta.Set(ctx, meta); err != nil {
			return domain.UpdateTemplateResult{}, err
		}
		return domain.UpdateTemplateResult{Message: MessageMetadataUpdated}, nil
	}

	if e.api == nil {
		return domain.UpdateTemplateResult{}, domain.ErrRemoteUnavailable
	}
	cat, err := e.ensureCatalog(ctx)
	if err != nil {
		return domain.UpdateTemplateResult{}, err
	}

	update := domain.UpdateTemplateInput{
		ID:         mode.ScenarioID,
		Name:       meta.TemplateName,
		Facilities: ids(cat.FacilityTypes, meta.FacilityTypes),
		Services:   ids(cat.ServiceLines, meta.FacilityServices),
	}
	var res domain.UpdateTemplateResult
	err = e.remote(ctx, "updateTemplate", func(ctx context.Context) error {
		var err error
		res, err = e.api.UpdateTemplate(ctx, update)
		return err
	})
	if err != nil {
		return domain.UpdateTemplateResult{}, err
	}

	e.mu.Lock()
	e.meta.Replace(meta)
	e.metadataLocal = true
	if res.Scenario != nil && res.Scenario.Version != "" {
		e.mode.Version = res.Scenario.Version
	}
	e.mu.Unlock()

	if res.Message == "" {
		res.Message = MessageMetadataUpdated
	}
	return res, nil
}
