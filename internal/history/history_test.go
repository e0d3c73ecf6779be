package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_FreshHasNothingToUndo(t *testing.T) {
	h := New("initial", 0)
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
	assert.Equal(t, "initial", h.Current())
	assert.Equal(t, 1, h.Len())
}

func TestHistory_Linearity(t *testing.T) {
	h := New("initial", 0)
	h.Commit("A")
	h.Commit("B")

	prev, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, "A", prev)
	assert.True(t, h.CanRedo())

	h.Commit("C")
	assert.False(t, h.CanRedo())
	assert.Equal(t, []string{"initial", "A", "C"}, h.Entries())
	assert.Equal(t, 2, h.Index())
}

func TestHistory_CommitClearsRedo(t *testing.T) {
	h := New(0, 0)
	h.Commit(1)
	assert.False(t, h.CanRedo())
	assert.True(t, h.CanUndo())
}

func TestHistory_UndoRedoBounds(t *testing.T) {
	h := New("a", 0)
	h.Commit("b")

	cur, ok := h.Redo()
	assert.False(t, ok)
	assert.Equal(t, "b", cur)

	cur, ok = h.Undo()
	assert.True(t, ok)
	assert.Equal(t, "a", cur)

	cur, ok = h.Undo()
	assert.False(t, ok)
	assert.Equal(t, "a", cur)
	assert.Equal(t, 0, h.Index())

	cur, ok = h.Redo()
	assert.True(t, ok)
	assert.Equal(t, "b", cur)
}

func TestHistory_Reset(t *testing.T) {
	h := New("a", 0)
	h.Commit("b")
	h.Commit("c")
	h.Undo()

	h.Reset("fresh")
	assert.Equal(t, []string{"fresh"}, h.Entries())
	assert.False(t, h.CanUndo())
	assert.False(t, h.CanRedo())
}

func TestHistory_MaxDepth(t *testing.T) {
	h := New(0, 3)
	for i := 1; i <= 5; i++ {
		h.Commit(i)
	}
	assert.Equal(t, []int{3, 4, 5}, h.Entries())
	assert.Equal(t, 2, h.Index())

	h.Undo()
	h.Undo()
	_, ok := h.Undo()
	assert.False(t, ok)
	assert.Equal(t, 3, h.Current())
}

func TestHistory_EntriesIsACopy(t *testing.T) {
	h := New("a", 0)
	entries := h.Entries()
	entries[0] = "mutated"
	assert.Equal(t, "a", h.Current())
}
