package session

import (
	"time"

	"github.com/aretw0/lattice/pkg/editor"
)

// Key prefixes used in the store.
const (
	RecordPrefix   = "session:"
	MetadataPrefix = "metadata:"
)

// Record is a persisted editor session.
type Record struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
	Saving    bool         `json:"saving,omitempty"`
	State     editor.State `json:"state"`
}

func recordKey(id string) string {
	return RecordPrefix + id
}

func metadataKey(id string) string {
	return MetadataPrefix + id
}
