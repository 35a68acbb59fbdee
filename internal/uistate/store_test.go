package uistate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreFlagAndToggle(t *testing.T) {
	store := NewStore()

	assert.False(t, store.IsExpanded("d1"))

	store.DocumentFlagged("d1")
	assert.True(t, store.IsExpanded("d1"))

	// Flagging twice stays expanded; toggling collapses.
	store.DocumentFlagged("d1")
	assert.True(t, store.IsExpanded("d1"))
	store.Toggle("d1")
	assert.False(t, store.IsExpanded("d1"))
	store.Toggle("d1")
	assert.True(t, store.IsExpanded("d1"))
}

func TestStoreForget(t *testing.T) {
	store := NewStore()
	store.DocumentFlagged("d1")
	store.Forget("d1")
	assert.False(t, store.IsExpanded("d1"))
	assert.Empty(t, store.Expanded())
}

func TestStoreExpandedSorted(t *testing.T) {
	store := NewStore()
	store.DocumentFlagged("c")
	store.DocumentFlagged("a")
	store.DocumentFlagged("b")
	assert.Equal(t, []string{"a", "b", "c"}, store.Expanded())
}
