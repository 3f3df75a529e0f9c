// Package document reads and writes the portable questionnaire.json format.
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/lattice/pkg/domain"
)

// Filename is the default name of exported documents.
const Filename = "questionnaire.json"

// Export serializes the graph as indented JSON with "nodes" and "edges" keys.
func Export(doc domain.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc.Clone(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questionnaire: %w", err)
	}
	return data, nil
}

// Encode writes the exported form of doc to w.
func Encode(w io.Writer, doc domain.Document) error {
	data, err := Export(doc)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Decode parses an exported document. Both "nodes" and "edges" must be present
// and non-null; otherwise the error wraps domain.ErrInvalidFormat.
func Decode(data []byte) (domain.Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.Document{}, fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
	}
	for _, key := range []string{"nodes", "edges"} {
		v, ok := raw[key]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return domain.Document{}, fmt.Errorf("%w: missing %q", domain.ErrInvalidFormat, key)
		}
	}

	var doc domain.Document
	if err := json.Unmarshal(raw["nodes"], &doc.Nodes); err != nil {
		return domain.Document{}, fmt.Errorf("%w: nodes: %v", domain.ErrInvalidFormat, err)
	}
	if err := json.Unmarshal(raw["edges"], &doc.Edges); err != nil {
		return domain.Document{}, fmt.Errorf("%w: edges: %v", domain.ErrInvalidFormat, err)
	}
	return doc.Clone(), nil
}

// Read decodes a document from r.
func Read(r io.Reader) (domain.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return domain.Document{}, fmt.Errorf("failed to read questionnaire: %w", err)
	}
	return Decode(data)
}
