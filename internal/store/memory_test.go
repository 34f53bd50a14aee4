package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateAssignsID(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	doc, err := m.Create(ctx, "notes", "", Fields{"text": "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "hello", doc.Fields["text"])

	_, err = m.Create(ctx, "notes", doc.ID, Fields{"text": "again"})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestMemory_ListFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	deleted := FormatTime(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC))

	_, err := m.Create(ctx, "notes", "a", Fields{"user_id": "u1", "deletedAt": nil})
	require.NoError(t, err)
	_, err = m.Create(ctx, "notes", "b", Fields{"user_id": "u1", "deletedAt": deleted})
	require.NoError(t, err)
	_, err = m.Create(ctx, "notes", "c", Fields{"user_id": "u2"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filters []Filter
		want    []string
	}{
		{name: "no filters", want: []string{"a", "b", "c"}},
		{name: "equal", filters: []Filter{Equal("user_id", "u1")}, want: []string{"a", "b"}},
		{name: "null matches missing and explicit null", filters: []Filter{IsNull("deletedAt")}, want: []string{"a", "c"}},
		{name: "greater than epoch", filters: []Filter{Equal("user_id", "u1"), GreaterThan("deletedAt", Epoch)}, want: []string{"b"}},
		{name: "greater than skips non-comparable", filters: []Filter{GreaterThan("deletedAt", 5)}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := m.List(ctx, "notes", tt.filters...)
			require.NoError(t, err)
			ids := make([]string, 0, len(docs))
			for _, d := range docs {
				ids = append(ids, d.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemory_UpdateAndDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Create(ctx, "notes", "a", Fields{"text": "one", "deletedAt": "x"})
	require.NoError(t, err)

	doc, err := m.Update(ctx, "notes", "a", Fields{"deletedAt": nil})
	require.NoError(t, err)
	assert.Nil(t, doc.Fields["deletedAt"])
	assert.Equal(t, "one", doc.Fields["text"])

	_, err = m.Update(ctx, "notes", "missing", Fields{"text": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Delete(ctx, "notes", "a"))
	assert.ErrorIs(t, m.Delete(ctx, "notes", "a"), ErrNotFound)

	_, err = m.Get(ctx, "notes", "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tags := []string{"work"}
	_, err := m.Create(ctx, "notes", "a", Fields{"tags": tags})
	require.NoError(t, err)
	tags[0] = "mutated"

	doc, err := m.Get(ctx, "notes", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, doc.Fields["tags"])
}

func TestTimeHelpers(t *testing.T) {
	ts := time.Date(2025, 6, 1, 23, 0, 26, 5_000_000, time.FixedZone("X", 3600))
	s := FormatTime(ts)
	assert.Equal(t, "2025-06-01T22:00:26.005Z", s)

	parsed := ParseTime(s)
	require.NotNil(t, parsed)
	assert.True(t, ts.Equal(*parsed))

	assert.Nil(t, ParseTime(nil))
	assert.Nil(t, ParseTime(""))
	assert.Nil(t, ParseTime("not a time"))
	assert.NotNil(t, ParseTime("2025-06-01T22:00:26Z"))

	assert.Equal(t, "1970-01-01T00:00:00.000Z", Epoch)
}

func TestStringList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, StringList([]any{"a", 3, "b"}))
	assert.Equal(t, []string{"a"}, StringList([]string{"a"}))
	assert.Equal(t, []string{}, StringList(nil))
}
