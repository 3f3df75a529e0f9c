// Package drafts persists unpublished questionnaires as an ordered JSON list
// under a single key of a ports.KVStore.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultKey is the storage key of the draft list.
const DefaultKey = "templateDrafts"

// DefaultLockTTL bounds how long a crashed replica can hold the draft list.
const DefaultLockTTL = 30 * time.Second

// Repository reads and writes drafts. Writes are read-modify-write cycles on
// one key. They are serialized within the process, and across processes when
// a distributed locker is configured.
type Repository struct {
	kv      ports.KVStore
	key     string
	clock   func() time.Time
	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
	mu      sync.Mutex
}

// Option configures a Repository.
type Option func(*Repository)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(r *Repository) {
		r.key = key
	}
}

// WithClock sets the source of createdAt/updatedAt timestamps.
func WithClock(clock func() time.Time) Option {
	return func(r *Repository) {
		r.clock = clock
	}
}

// WithLocker guards writes with a distributed lock on the draft key.
// A non-positive ttl keeps DefaultLockTTL.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(r *Repository) {
		r.locker = locker
		if ttl > 0 {
			r.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// New creates a repository over kv.
func New(kv ports.KVStore, opts ...Option) *Repository {
	r := &Repository{
		kv:      kv,
		key:     DefaultKey,
		clock:   time.Now,
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns every draft in insertion order. A missing list is empty.
func (r *Repository) List(ctx context.Context) ([]domain.Draft, error) {
	data, err := r.kv.Get(ctx, r.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return []domain.Draft{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read drafts: %w", err)
	}

	var list []domain.Draft
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode drafts: %w", err)
	}
	if list == nil {
		list = []domain.Draft{}
	}
	return list, nil
}

// Get returns the draft with the given id.
func (r *Repository) Get(ctx context.Context, id string) (domain.Draft, error) {
	list, err := r.List(ctx)
	if err != nil {
		return domain.Draft{}, err
	}
	for _, d := range list {
		if d.ID == id {
			return d, nil
		}
	}
	return domain.Draft{}, fmt.Errorf("%w: %s", domain.ErrDraftNotFound, id)
}

// Upsert stores d. An existing draft with the same id is replaced in place and
// keeps its createdAt; a new one is appended with createdAt set to now. UpdatedAt
// is always set to now.
func (r *Repository) Upsert(ctx context.Context, d domain.Draft) (domain.Draft, error) {
	if d.ID == "" {
		return domain.Draft{}, &domain.ValidationError{Field: "id", Reason: "is required"}
	}

	err := r.withLock(ctx, func(ctx context.Context) error {
		list, err := r.List(ctx)
		if err != nil {
			return err
		}
		list = r.merge(list, &d)
		return r.write(ctx, list)
	})
	if err != nil {
		return domain.Draft{}, err
	}
	return d, nil
}

// merge stamps d and places it in list.
func (r *Repository) merge(list []domain.Draft, d *domain.Draft) []domain.Draft {
	now := r.clock().UTC()
	d.UpdatedAt = now
	d.IsDraft = true
	if d.Status == "" {
		d.Status = domain.DraftStatusInProgress
	}

	for i := range list {
		if list[i].ID == d.ID {
			d.CreatedAt = list[i].CreatedAt
			list[i] = *d
			return list
		}
	}
	d.CreatedAt = now
	return append(list, *d)
}

// Delete removes the draft with the given id.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.withLock(ctx, func(ctx context.Context) error {
		list, err := r.List(ctx)
		if err != nil {
			return err
		}
		for i := range list {
			if list[i].ID == id {
				return r.write(ctx, append(list[:i:i], list[i+1:]...))
			}
		}
		return fmt.Errorf("%w: %s", domain.ErrDraftNotFound, id)
	})
}

func (r *Repository) withLock(ctx context.Context, fn func(context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.locker != nil {
		unlock, err := r.locker.Lock(ctx, r.key, r.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				r.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", r.key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (r *Repository) write(ctx context.Context, list []domain.Draft) error {
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode drafts: %w", err)
	}
	if err := r.kv.Set(ctx, r.key, data); err != nil {
		return fmt.Errorf("failed to write drafts: %w", err)
	}
	return nil
}
