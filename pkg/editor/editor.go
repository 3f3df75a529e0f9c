package editor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/internal/validator"
	"github.com/aretw0/lattice/pkg/document"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/drafts"
	"github.com/aretw0/lattice/pkg/graph"
	"github.com/aretw0/lattice/pkg/ports"
)

// Editor is one questionnaire editing session.
type Editor struct {
	graph     *graph.Store
	meta      *MetadataStore
	kv        ports.KVStore
	api       ports.ScenarioAPI
	drafts    *drafts.Repository
	templates ports.TemplateSource
	logger    *slog.Logger
	hooks     domain.Hooks
	clock     func() time.Time
	maxInput  int
	backupKey string

	// mu serializes compound operations and guards the fields below.
	mu             sync.Mutex
	mode           Mode
	startCompleted bool
	metadataLocal  bool
	catalog        *Catalog

	saving  atomic.Bool
	loadGen atomic.Uint64
}

// Option configures an Editor.
type Option func(*Editor)

// WithScenarioAPI sets the remote service used by Save, LoadScenario and the catalog.
func WithScenarioAPI(api ports.ScenarioAPI) Option {
	return func(e *Editor) {
		e.api = api
	}
}

// WithDrafts sets the draft repository. By default drafts live in the editor's store.
func WithDrafts(r *drafts.Repository) Option {
	return func(e *Editor) {
		e.drafts = r
	}
}

// WithTemplates sets the read-only library LoadDraft falls back to.
func WithTemplates(t ports.TemplateSource) Option {
	return func(e *Editor) {
		e.templates = t
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		e.logger = logger
	}
}

// WithHooks registers observability callbacks. Multiple calls are merged.
func WithHooks(h domain.Hooks) Option {
	return func(e *Editor) {
		e.hooks = e.hooks.Merge(h)
	}
}

// WithMode sets what the editor is opened for.
func WithMode(m Mode) Option {
	return func(e *Editor) {
		e.mode = m
	}
}

// WithClock sets the time source for draft ids.
func WithClock(clock func() time.Time) Option {
	return func(e *Editor) {
		e.clock = clock
	}
}

// WithMaxInputSize bounds every free-text field in bytes.
func WithMaxInputSize(n int) Option {
	return func(e *Editor) {
		if n > 0 {
			e.maxInput = n
		}
	}
}

// WithBackupKey overrides the storage key of the metadata backup.
func WithBackupKey(key string) Option {
	return func(e *Editor) {
		e.backupKey = key
	}
}

// New creates an editor persisting drafts and the metadata backup in kv.
func New(kv ports.KVStore, opts ...Option) *Editor {
	e := &Editor{
		kv:        kv,
		logger:    logging.NewNop(),
		clock:     time.Now,
		maxInput:  maxInputSizeFromEnv(),
		backupKey: DefaultMetadataKey,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.drafts == nil {
		e.drafts = drafts.New(kv)
	}
	e.meta = NewMetadataStore(kv, e.backupKey)
	e.graph = graph.NewStore(graph.WithObserver(e.observe))
	return e
}

func (e *Editor) observe(op string, before, after graph.Snapshot) {
	if e.hooks.OnMutation == nil {
		return
	}
	e.hooks.OnMutation(context.Background(), &domain.MutationEvent{
		Timestamp: e.clock(),
		Op:        op,
		Nodes:     len(after.Nodes),
		Edges:     len(after.Edges),
	})
}

// Graph returns the current snapshot of the questionnaire graph.
func (e *Editor) Graph() graph.Snapshot {
	return e.graph.Snapshot()
}

// Metadata returns the template metadata and whether it has been set.
func (e *Editor) Metadata() (domain.TemplateMetadata, bool) {
	return e.meta.Get()
}

// Mode returns what the editor is opened for.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// StartCompleted reports whether the start dialog has been submitted.
func (e *Editor) StartCompleted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startCompleted
}

// RestoreMetadata recovers metadata from its backup when none is set.
func (e *Editor) RestoreMetadata(ctx context.Context) (bool, error) {
	return e.meta.Restore(ctx)
}

// writable fails for read-only sessions. Caller holds mu.
func (e *Editor) writable() error {
	if e.mode.IsView() {
		return domain.ErrViewOnly
	}
	return nil
}

// edit runs fn under the editor lock after checking the session is writable.
func (e *Editor) edit(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.writable(); err != nil {
		return err
	}
	return fn()
}

// clean sanitizes a free-text field.
func (e *Editor) clean(field, s string) (string, error) {
	out, err := sanitize(s, e.maxInput)
	if err != nil {
		return "", &domain.ValidationError{Field: field, Reason: err.Error()}
	}
	return out, nil
}

func (e *Editor) cleanData(d domain.NodeData) (domain.NodeData, error) {
	var err error
	if d.Question, err = e.clean("question", d.Question); err != nil {
		return d, err
	}
	if d.SectionName, err = e.clean("sectionName", d.SectionName); err != nil {
		return d, err
	}
	if d.Options != nil {
		opts := make([]string, len(d.Options))
		for i, o := range d.Options {
			if opts[i], err = e.clean(fmt.Sprintf("options[%d]", i), o); err != nil {
				return d, err
			}
		}
		d.Options = opts
	}
	return d, nil
}

func (e *Editor) cleanPatch(p domain.NodePatch) (domain.NodePatch, error) {
	if p.Question != nil {
		q, err := e.clean("question", *p.Question)
		if err != nil {
			return p, err
		}
		p.Question = &q
	}
	if p.SectionName != nil {
		s, err := e.clean("sectionName", *p.SectionName)
		if err != nil {
			return p, err
		}
		p.SectionName = &s
	}
	if p.Options != nil {
		d, err := e.cleanData(domain.NodeData{Options: p.Options})
		if err != nil {
			return p, err
		}
		p.Options = d.Options
	}
	return p, nil
}

// UpdateNode merges patch into a node; option edges are relabelled.
func (e *Editor) UpdateNode(id string, patch domain.NodePatch) error {
	return e.edit(func() error {
		p, err := e.cleanPatch(patch)
		if err != nil {
			return err
		}
		return e.graph.UpdateNode(id, p)
	})
}

// DeleteNode removes a node and every edge touching it.
func (e *Editor) DeleteNode(id string) error {
	return e.edit(func() error { return e.graph.DeleteNode(id) })
}

// MoveNode changes the canvas position of a node.
func (e *Editor) MoveNode(id string, pos domain.Position) error {
	return e.edit(func() error { return e.graph.MoveNode(id, pos) })
}

// Connect adds a navigation edge.
func (e *Editor) Connect(link graph.Link) (domain.Edge, error) {
	var edge domain.Edge
	err := e.edit(func() error {
		var err error
		edge, err = e.graph.AddEdge(link)
		return err
	})
	return edge, err
}

// Disconnect removes an edge by id.
func (e *Editor) Disconnect(edgeID string) error {
	return e.edit(func() error { return e.graph.DeleteEdge(edgeID) })
}

// Route points an output of a node at target, or removes its edge when target is empty.
func (e *Editor) Route(nodeID, handle, target string) (*domain.Edge, error) {
	var edge *domain.Edge
	err := e.edit(func() error {
		var err error
		edge, err = e.graph.Route(nodeID, handle, target)
		return err
	})
	return edge, err
}

// AddOption appends a default option to a choice question.
func (e *Editor) AddOption(id string) error {
	return e.edit(func() error { return e.graph.AddOption(id) })
}

// DeleteOption removes option i and the edges bound to it.
func (e *Editor) DeleteOption(id string, i int) error {
	return e.edit(func() error { return e.graph.DeleteOption(id, i) })
}

// ClearAll removes every question, keeping sections.
func (e *Editor) ClearAll() error {
	return e.edit(e.graph.ClearQuestions)
}

// Connections resolves the outputs of a node.
func (e *Editor) Connections(nodeID string) ([]graph.Connection, error) {
	return graph.Resolve(e.graph.Snapshot(), nodeID)
}

// Export encodes the whole graph as a questionnaire document.
func (e *Editor) Export() ([]byte, error) {
	return document.Export(e.graph.Snapshot().Document())
}

// Import replaces the graph with a questionnaire document. On any error the
// graph is left unchanged.
func (e *Editor) Import(data []byte) error {
	doc, err := document.Decode(data)
	if err != nil {
		return err
	}

	report := validator.ValidateQuestionnaire(doc)
	for _, w := range report.Warnings {
		e.logger.Warn("imported questionnaire", "warning", w)
	}
	if len(report.Errors) > 0 {
		e.logger.Warn("imported questionnaire has errors", "count", len(report.Errors), "err", report.Err())
	}

	return e.edit(func() error {
		return e.graph.ReplaceAll(doc.Nodes, doc.Edges)
	})
}

// Validate reports structural problems of the current graph.
func (e *Editor) Validate() *validator.Report {
	return validator.ValidateQuestionnaire(e.graph.Snapshot().Document())
}
