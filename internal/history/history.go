// Package history keeps a linear undo/redo timeline of snapshots.
package history

// History is a sequence of snapshots with a cursor on the current one.
// Committing after an undo discards the undone snapshots. It is not safe
// for concurrent use; the owner serializes access.
type History[T any] struct {
	entries  []T
	index    int
	maxDepth int
}

// New creates a history holding initial. maxDepth caps the number of
// snapshots kept, dropping the oldest; 0 means unbounded.
func New[T any](initial T, maxDepth int) *History[T] {
	h := &History[T]{maxDepth: maxDepth}
	h.Reset(initial)
	return h
}

// Reset replaces the timeline with the single snapshot initial
func (h *History[T]) Reset(initial T) {
	h.entries = []T{initial}
	h.index = 0
}

// Commit truncates any redo states and appends snapshot as current
func (h *History[T]) Commit(snapshot T) {
	h.entries = append(h.entries[:h.index+1], snapshot)
	if h.maxDepth > 0 && len(h.entries) > h.maxDepth {
		drop := len(h.entries) - h.maxDepth
		h.entries = append([]T(nil), h.entries[drop:]...)
	}
	h.index = len(h.entries) - 1
}

// Undo moves the cursor back and returns the snapshot there. It reports
// false at the start of the timeline.
func (h *History[T]) Undo() (T, bool) {
	if !h.CanUndo() {
		return h.Current(), false
	}
	h.index--
	return h.entries[h.index], true
}

// Redo moves the cursor forward and returns the snapshot there. It
// reports false at the end of the timeline.
func (h *History[T]) Redo() (T, bool) {
	if !h.CanRedo() {
		return h.Current(), false
	}
	h.index++
	return h.entries[h.index], true
}

func (h *History[T]) CanUndo() bool { return h.index > 0 }

func (h *History[T]) CanRedo() bool { return h.index < len(h.entries)-1 }

// Current returns the snapshot under the cursor
func (h *History[T]) Current() T { return h.entries[h.index] }

func (h *History[T]) Len() int { return len(h.entries) }

func (h *History[T]) Index() int { return h.index }

// Entries returns a copy of the timeline
func (h *History[T]) Entries() []T {
	return append([]T(nil), h.entries...)
}
