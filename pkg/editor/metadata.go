package editor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// DefaultMetadataKey is the storage key of the metadata backup.
const DefaultMetadataKey = "currentTemplateMetadata"

// MetadataStore keeps the template metadata of the questionnaire being edited and
// mirrors it to a backup key so it survives a restart.
type MetadataStore struct {
	kv  ports.KVStore
	key string

	mu   sync.RWMutex
	meta domain.TemplateMetadata
	set  bool
}

// NewMetadataStore creates an empty metadata store backed up under key.
func NewMetadataStore(kv ports.KVStore, key string) *MetadataStore {
	if key == "" {
		key = DefaultMetadataKey
	}
	return &MetadataStore{kv: kv, key: key, meta: domain.TemplateMetadata{}.Normalize()}
}

// Get returns the metadata and whether any has been set.
func (m *MetadataStore) Get() (domain.TemplateMetadata, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.meta, m.set
}

// Set replaces the metadata and writes the backup.
func (m *MetadataStore) Set(ctx context.Context, meta domain.TemplateMetadata) error {
	meta = meta.Normalize()
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := m.kv.Set(ctx, m.key, data); err != nil {
		return fmt.Errorf("failed to back up metadata: %w", err)
	}
	m.Replace(meta)
	return nil
}

// Replace sets the metadata in memory only, as when it is loaded from a draft or
// scenario.
func (m *MetadataStore) Replace(meta domain.TemplateMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = meta.Normalize()
	m.set = true
}

// Restore loads the backup when no metadata is set. It reports whether
// metadata was restored; a backup without a template name is ignored.
func (m *MetadataStore) Restore(ctx context.Context) (bool, error) {
	if _, ok := m.Get(); ok {
		return false, nil
	}

	data, err := m.kv.Get(ctx, m.key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read metadata backup: %w", err)
	}

	var meta domain.TemplateMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return false, fmt.Errorf("failed to decode metadata backup: %w", err)
	}
	if !meta.HasName() {
		return false, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set {
		return false, nil
	}
	m.meta = meta.Normalize()
	m.set = true
	return true, nil
}

// Clear forgets the metadata and deletes the backup.
func (m *MetadataStore) Clear(ctx context.Context) error {
	m.Reset()
	if err := m.kv.Delete(ctx, m.key); err != nil {
		return fmt.Errorf("failed to delete metadata backup: %w", err)
	}
	return nil
}

// Reset forgets the metadata in memory, keeping the backup.
func (m *MetadataStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = domain.TemplateMetadata{}.Normalize()
	m.set = false
}
