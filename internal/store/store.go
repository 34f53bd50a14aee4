// Package store defines the document-store contract the note services depend on.
//
// A Store is a thin CRUD surface over named collections of schemaless documents.
// Every operation is fallible and reports failures as returned errors; callers
// must not assume bounded result sizes from List.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document id does not exist in the collection.
var ErrNotFound = errors.New("document not found")

// ErrDuplicateID is returned when Create collides with an existing id or a
// unique key enforced by the backend.
var ErrDuplicateID = errors.New("document id already exists")

// TimeLayout is the ISO-8601 layout used for every persisted timestamp.
// Fixed-width millisecond precision keeps string comparison chronological.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Epoch is the lower bound used by "timestamp is set" range predicates.
var Epoch = FormatTime(time.Unix(0, 0))

// Fields holds document attributes keyed by persisted field name.
type Fields map[string]any

// Document is a stored record: an opaque store-assigned id plus its fields.
type Document struct {
	ID     string `json:"id"`
	Fields Fields `json:"fields"`
}

// Store is the document-store collaborator.
type Store interface {
	// List returns all documents in collection matching every filter.
	List(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create inserts fields under id; an empty id lets the store assign one.
	Create(ctx context.Context, collection, id string, fields Fields) (Document, error)
	// Update applies a partial update and returns the document after the change.
	// A nil value stores an explicit null.
	Update(ctx context.Context, collection, id string, fields Fields) (Document, error)
	// Delete removes a document or returns ErrNotFound.
	Delete(ctx context.Context, collection, id string) error
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// FormatTime renders t in TimeLayout, always in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a stored timestamp. Nil, empty and non-string values yield nil.
func ParseTime(v any) *time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return nil
		}
	}
	t = t.UTC()
	return &t
}

// String returns v as a string, or "" when v is absent or of another type.
func String(v any) string {
	s, _ := v.(string)
	return s
}

// OptionalString returns nil for absent, null or empty values.
func OptionalString(v any) *string {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// StringList converts a stored list value into []string. Backends decode
// arrays differently (e.g. []any from BSON), so every shape is accepted.
func StringList(v any) []string {
	switch l := v.(type) {
	case []string:
		out := make([]string, len(l))
		copy(out, l)
		return out
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
