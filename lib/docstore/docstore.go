package docstore

import (
	"context"
)

// Document is a bag of named fields addressed by a slash-separated path
// ("courses/123", "proxies/1.2.3.4:8080"). Nested values round-trip
// through JSON, so numbers come back as float64.
type Document map[string]any

// Store is the persistence collaborator consumed by the scraping core.
// Writes are not assumed to be synchronously consistent; callers that
// need confirmation must read back themselves.
type Store interface {
	// Get returns nil, nil when the document does not exist.
	Get(ctx context.Context, path string) (Document, error)
	// Set writes fields at path. With merge, existing fields not named in
	// the update are preserved; without it the document is replaced.
	Set(ctx context.Context, path string, fields Document, merge bool) error
	// List returns every document under the given path prefix.
	List(ctx context.Context, prefix string) (map[string]Document, error)
}

type arrayUnion struct {
	values []any
}

type increment struct {
	by float64
}

// ArrayUnion is a field transform: the given values are appended to the
// stored array, skipping values already present.
func ArrayUnion(values ...any) any {
	return arrayUnion{values: values}
}

// Increment is a field transform: the stored number is incremented by n.
// Concurrent increments are applied without a transaction, approximate
// totals are acceptable to every consumer of this transform.
func Increment(n float64) any {
	return increment{by: n}
}

// applyTransforms resolves ArrayUnion/Increment markers against the
// existing document, returning plain JSON-encodable values.
func applyTransforms(existing Document, fields Document) Document {
	out := Document{}
	for k, v := range fields {
		switch tv := v.(type) {
		case arrayUnion:
			out[k] = unionInto(existing[k], tv.values)
		case increment:
			out[k] = Float(existing, k) + tv.by
		default:
			out[k] = v
		}
	}
	return out
}

func unionInto(existing any, values []any) []any {
	var out []any
	seen := map[any]bool{}
	if arr, ok := existing.([]any); ok {
		for _, v := range arr {
			out = append(out, v)
			if isComparable(v) {
				seen[v] = true
			}
		}
	}
	for _, v := range values {
		if isComparable(v) && seen[v] {
			continue
		}
		out = append(out, v)
		if isComparable(v) {
			seen[v] = true
		}
	}
	return out
}

func isComparable(v any) bool {
	switch v.(type) {
	case string, bool, float64, int, int64:
		return true
	}
	return false
}

func merge(existing Document, resolved Document) Document {
	out := Document{}
	for k, v := range existing {
		out[k] = v
	}
	for k, v := range resolved {
		out[k] = v
	}
	return out
}
