package docstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store used by tests. Documents round-trip
// through JSON so typed values degrade exactly like they do in sqlite.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]string{}}
}

func (s *MemoryStore) Get(ctx context.Context, path string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.docs[path]
	if !ok {
		return nil, nil
	}
	var doc Document
	err := json.Unmarshal([]byte(raw), &doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *MemoryStore) Set(ctx context.Context, path string, fields Document, mergeFields bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing Document
	if raw, ok := s.docs[path]; ok {
		err := json.Unmarshal([]byte(raw), &existing)
		if err != nil {
			return err
		}
	}

	resolved := applyTransforms(existing, fields)
	if mergeFields && existing != nil {
		resolved = merge(existing, resolved)
	}

	encoded, err := json.Marshal(resolved)
	if err != nil {
		return err
	}
	s.docs[path] = string(encoded)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) (map[string]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]Document{}
	for path, raw := range s.docs {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		var doc Document
		err := json.Unmarshal([]byte(raw), &doc)
		if err != nil {
			return nil, err
		}
		out[path] = doc
	}
	return out, nil
}
