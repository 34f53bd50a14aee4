package store

import (
	"context"
	"crypto/rand"
	"reflect"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Memory is an in-process Store. It keeps insertion order per collection and
// hands out copies, so callers can never mutate stored state.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order []string
	docs  map[string]Fields
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]*memCollection)}
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) collection(name string) *memCollection {
	c, ok := m.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]Fields)}
		m.collections[name] = c
	}
	return c
}

// List implements Store.
func (m *Memory) List(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return []Document{}, nil
	}

	out := make([]Document, 0, len(c.order))
	for _, id := range c.order {
		fields := c.docs[id]
		if matchesAll(fields, filters) {
			out = append(out, Document{ID: id, Fields: cloneFields(fields)})
		}
	}
	return out, nil
}

// Get implements Store.
func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.collections[collection]
	if !ok {
		return Document{}, ErrNotFound
	}
	fields, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Create implements Store.
func (m *Memory) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if id == "" {
		id = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := m.collection(collection)
	if _, exists := c.docs[id]; exists {
		return Document{}, ErrDuplicateID
	}
	c.docs[id] = cloneFields(fields)
	c.order = append(c.order, id)
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Update implements Store.
func (m *Memory) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return Document{}, ErrNotFound
	}
	current, ok := c.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	for k, v := range cloneFields(fields) {
		current[k] = v
	}
	return Document{ID: id, Fields: cloneFields(current)}, nil
}

// Delete implements Store.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.collections[collection]
	if !ok {
		return ErrNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return ErrNotFound
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

func matchesAll(fields Fields, filters []Filter) bool {
	for _, f := range filters {
		if !matches(fields, f) {
			return false
		}
	}
	return true
}

func matches(fields Fields, f Filter) bool {
	v, present := fields[f.Field]
	switch f.Op {
	case OpIsNull:
		return !present || v == nil
	case OpEqual:
		return present && reflect.DeepEqual(v, f.Value)
	case OpGreaterThan:
		if !present || v == nil {
			return false
		}
		cmp, ok := compare(v, f.Value)
		return ok && cmp > 0
	default:
		return false
	}
}

// compare orders two scalar values of the same family.
func compare(a, b any) (int, bool) {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func cloneFields(in Fields) Fields {
	out := make(Fields, len(in))
	for k, v := range in {
		if l, ok := v.([]string); ok {
			cp := make([]string, len(l))
			copy(cp, l)
			v = cp
		}
		out[k] = v
	}
	return out
}
