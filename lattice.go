package lattice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/drafts"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
)

// Workspace is the high-level entry point of the library. It owns the stores and
// the remote service shared by every editor and session.
type Workspace struct {
	Store     ports.KVStore
	API       ports.ScenarioAPI
	Users     ports.UserAPI
	Templates ports.TemplateSource
	Drafts    *drafts.Repository
	Sessions  *session.Manager
	Metrics   *observability.Metrics

	locker       ports.DistributedLocker
	lockTTL      time.Duration
	maxInputSize int
	logger       *slog.Logger
	closers      []io.Closer
	editorOpts   []editor.Option
}

// Option defines a functional option for configuring the Workspace.
type Option func(*Workspace)

// WithStore sets the key-value store for drafts, metadata backups and sessions.
// The default is an in-memory store.
func WithStore(kv ports.KVStore) Option {
	return func(w *Workspace) {
		w.Store = kv
	}
}

// WithScenarioAPI sets the remote scenario service. The default is an in-memory
// service, which keeps the workspace usable offline.
func WithScenarioAPI(api ports.ScenarioAPI) Option {
	return func(w *Workspace) {
		w.API = api
	}
}

// WithUserAPI sets the remote user service.
func WithUserAPI(users ports.UserAPI) Option {
	return func(w *Workspace) {
		w.Users = users
	}
}

// WithTemplates sets the read-only template library.
func WithTemplates(t ports.TemplateSource) Option {
	return func(w *Workspace) {
		w.Templates = t
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(l ports.DistributedLocker) Option {
	return func(w *Workspace) {
		w.locker = l
	}
}

// WithLockTTL sets the expiry of distributed session locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(w *Workspace) {
		w.lockTTL = ttl
	}
}

// WithMaxInputSize bounds free-text fields.
func WithMaxInputSize(n int) Option {
	return func(w *Workspace) {
		w.maxInputSize = n
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workspace) {
		w.logger = logger
	}
}

// WithMetrics sets the metrics collector. A fresh one is created otherwise.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Workspace) {
		w.Metrics = m
	}
}

// WithCloser registers a resource released by Close, such as a store connection.
func WithCloser(c io.Closer) Option {
	return func(w *Workspace) {
		w.closers = append(w.closers, c)
	}
}

// New creates a workspace.
func New(opts ...Option) (*Workspace, error) {
	w := &Workspace{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.maxInputSize < 0 || w.lockTTL < 0 {
		return nil, fmt.Errorf("invalid workspace limits: max input %d, lock ttl %s", w.maxInputSize, w.lockTTL)
	}

	if w.Store == nil {
		w.Store = memory.NewStore()
	}
	if w.API == nil {
		w.API = memory.NewScenarioAPI()
	}
	if w.Metrics == nil {
		w.Metrics = observability.NewMetrics()
	}
	draftOpts := []drafts.Option{drafts.WithLogger(w.logger)}
	if w.locker != nil {
		draftOpts = append(draftOpts, drafts.WithLocker(w.locker, w.lockTTL))
	}
	w.Drafts = drafts.New(w.Store, draftOpts...)

	w.editorOpts = []editor.Option{
		editor.WithScenarioAPI(w.API),
		editor.WithDrafts(w.Drafts),
		editor.WithLogger(w.logger),
		editor.WithHooks(w.Metrics.Hooks()),
		editor.WithHooks(observability.LogHooks(w.logger)),
	}
	if w.Templates != nil {
		w.editorOpts = append(w.editorOpts, editor.WithTemplates(w.Templates))
	}
	if w.maxInputSize > 0 {
		w.editorOpts = append(w.editorOpts, editor.WithMaxInputSize(w.maxInputSize))
	}

	sessionOpts := []session.Option{
		session.WithLogger(w.logger),
		session.WithEditorOptions(w.editorOpts...),
	}
	if w.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(w.locker))
	}
	if w.lockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(w.lockTTL))
	}
	w.Sessions = session.NewManager(w.Store, sessionOpts...)
	return w, nil
}

// NewEditor creates a standalone editor wired to the workspace. Extra options are
// applied after the workspace defaults.
func (w *Workspace) NewEditor(opts ...editor.Option) *editor.Editor {
	all := append(append([]editor.Option{}, w.editorOpts...), opts...)
	return editor.New(w.Store, all...)
}

// Logger returns the workspace logger.
func (w *Workspace) Logger() *slog.Logger {
	return w.logger
}

// Close releases the registered resources.
func (w *Workspace) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
