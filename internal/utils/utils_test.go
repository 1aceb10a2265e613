package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID       string  `db:"id"`
	Title    string  `db:"title"`
	Skipped  string  `db:"-"`
	Untagged string
	hidden   string  `db:"hidden"`
	Score    *int64  `db:"score"`
}

func TestStructTagValues(t *testing.T) {
	assert.Equal(t, []string{"id", "title", "score"}, StructTagValues(&row{}))
	assert.Equal(t, []string{"id", "title", "score"}, StructTagValues(row{}))
	assert.Panics(t, func() { StructTagValues("nope") })
}

func TestStructToMap(t *testing.T) {
	got := StructToMap(row{ID: "a", Title: "b", hidden: "c"})
	assert.Equal(t, map[string]any{"id": "a", "title": "b", "score": (*int64)(nil)}, got)
}

func TestNonBlankPtr(t *testing.T) {
	assert.Nil(t, NonBlankPtr("   "))
	require.NotNil(t, NonBlankPtr(" x "))
	assert.Equal(t, "x", *NonBlankPtr(" x "))
	assert.Equal(t, "", PtrString(nil))
}

func TestErrorWrapOrNil(t *testing.T) {
	base := errors.New("boom")

	assert.NoError(t, ErrorWrapOrNil(nil, "ctx"))
	assert.Same(t, base, ErrorWrapOrNil(base, ""))

	wrapped := ErrorWrapOrNil(base, "ctx")
	assert.EqualError(t, wrapped, "ctx: boom")
	assert.ErrorIs(t, wrapped, base)
}

func TestNanoID(t *testing.T) {
	id := NanoID()
	assert.Len(t, id, 21)
	assert.Regexp(t, `^[0-9A-Za-z]+$`, id)
	assert.NotEqual(t, id, NanoID())
}
