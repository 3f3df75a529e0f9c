package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/editor"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a crashed replica can hold a session.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	kv ports.KVStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	clock   func() time.Time
	opts    []editor.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets options applied to every editor the manager builds.
func WithEditorOptions(opts ...editor.Option) Option {
	return func(m *Manager) {
		m.opts = append(m.opts, opts...)
	}
}

// WithClock sets the time source for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// NewManager creates a session manager persisting records in kv.
func NewManager(kv ports.KVStore, opts ...Option) *Manager {
	m := &Manager{
		kv:      kv,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Change is the result of an Update.
type Change struct {
	Record *Record
	// Diff is nil when the graph did not change.
	Diff *domain.GraphDiff
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu and call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, recordKey(id), m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// Create starts a new session opened in the given mode.
func (m *Manager) Create(ctx context.Context, mode editor.Mode) (*Record, error) {
	now := m.clock().UTC()
	rec := &Record{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec.State.Mode = mode
	rec.State = m.editor(rec).State()

	err := m.WithLock(ctx, rec.ID, func(ctx context.Context) error {
		return m.put(ctx, rec)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("session created", "session_id", rec.ID)
	return rec, nil
}

// Load retrieves an existing session.
func (m *Manager) Load(ctx context.Context, id string) (*Record, error) {
	var rec *Record
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		var err error
		rec, err = m.get(ctx, id)
		return err
	})
	return rec, err
}

// Delete removes the session and its metadata backup.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		if _, err := m.get(ctx, id); err != nil {
			return err
		}
		if err := m.kv.Delete(ctx, metadataKey(id)); err != nil {
			return err
		}
		return m.kv.Delete(ctx, recordKey(id))
	})
}

// List returns the ids of all stored sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	keys, err := m.kv.List(ctx, RecordPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, RecordPrefix))
	}
	return ids, nil
}

// Update loads the session, runs fn on its editor and persists the result.
// When fn fails nothing is written.
func (m *Manager) Update(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) (*Change, error) {
	var change *Change
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		rec, err := m.get(ctx, id)
		if err != nil {
			return err
		}

		e := m.editor(rec)
		before := rec.State
		if err := fn(ctx, e); err != nil {
			return err
		}
		after := e.State()

		change = &Change{Record: rec}
		if reflect.DeepEqual(before, after) {
			return nil
		}
		oldDoc := domain.Document{Nodes: before.Nodes, Edges: before.Edges}
		newDoc := domain.Document{Nodes: after.Nodes, Edges: after.Edges}
		change.Diff = domain.Diff(id, &oldDoc, &newDoc)

		rec.State = after
		rec.UpdatedAt = m.clock().UTC()
		return m.put(ctx, rec)
	})
	return change, err
}

// View runs fn on a read-only copy of the session's editor. Changes made by fn
// are discarded.
func (m *Manager) View(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error {
	rec, err := m.Load(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, m.editor(rec))
}

// Save publishes the session. The in-flight flag is persisted under the lock, the
// remote call runs without holding it, and the outcome is merged back under the
// lock so edits made meanwhile are kept.
func (m *Manager) Save(ctx context.Context, id string) (editor.SaveResult, error) {
	var snapshot *Record
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		rec, err := m.get(ctx, id)
		if err != nil {
			return err
		}
		if rec.Saving {
			return &domain.PreconditionError{Err: domain.ErrSaveInProgress}
		}
		rec.Saving = true
		snapshot = rec
		return m.put(ctx, rec)
	})
	if err != nil {
		return editor.SaveResult{}, err
	}

	e := m.editor(snapshot)
	res, saveErr := e.Save(ctx)
	mode := e.Mode()

	// The caller may have gone away; the flag must still be cleared.
	finish := context.WithoutCancel(ctx)
	err = m.WithLock(finish, id, func(ctx context.Context) error {
		rec, err := m.get(ctx, id)
		if err != nil {
			return err
		}
		rec.Saving = false
		if saveErr == nil {
			rec.State.Mode = mode
		}
		rec.UpdatedAt = m.clock().UTC()
		return m.put(ctx, rec)
	})
	if err != nil {
		m.logger.Error("failed to finish save", "session_id", id, "err", err)
		if saveErr == nil {
			return res, err
		}
	}
	return res, saveErr
}

// editor builds the editor of a record.
func (m *Manager) editor(rec *Record) *editor.Editor {
	opts := append([]editor.Option{}, m.opts...)
	opts = append(opts,
		editor.WithMode(rec.State.Mode),
		editor.WithBackupKey(metadataKey(rec.ID)),
	)
	e := editor.New(m.kv, opts...)
	e.Restore(rec.State)
	return e
}

func (m *Manager) get(ctx context.Context, id string) (*Record, error) {
	data, err := m.kv.Get(ctx, recordKey(id))
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &rec, nil
}

func (m *Manager) put(ctx context.Context, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := m.kv.Set(ctx, recordKey(rec.ID), data); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
