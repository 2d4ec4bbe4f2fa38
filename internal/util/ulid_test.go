package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewULID(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id := NewULID()
		assert.Len(t, id, 26)
		assert.True(t, IsULID(id))
		_, dup := seen[id]
		assert.False(t, dup, "duplicate ULID %s", id)
		seen[id] = struct{}{}
	}
}

func TestIsULID(t *testing.T) {
	assert.False(t, IsULID(""))
	assert.False(t, IsULID("not-a-ulid"))
	assert.False(t, IsULID("01ARZ3NDEKTSV4RRFFQ69G5FA"))
	assert.True(t, IsULID("01ARZ3NDEKTSV4RRFFQ69G5FAV"))
}
