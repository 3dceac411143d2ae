// Package history keeps an undo/redo stack of immutable snapshots. It knows
// nothing about what a snapshot contains; callers supply the deep copy.
package history

// DefaultLimit is the number of snapshots kept when no limit is given.
const DefaultLimit = 50

// Manager is a bounded snapshot list plus a cursor. The entry at the cursor
// is the present state; entries after it are the redo branch.
type Manager[T any] struct {
	entries []T
	index   int
	limit   int
	clone   func(T) T
}

// New creates an empty manager. clone must return a deep copy; limit <= 0
// selects DefaultLimit.
func New[T any](clone func(T) T, limit int) *Manager[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager[T]{index: -1, limit: limit, clone: clone}
}

// Snapshot drops any redo branch, appends a copy of state and moves the
// cursor onto it. The oldest entry is discarded once the limit is exceeded.
func (m *Manager[T]) Snapshot(state T) {
	m.entries = append(m.entries[:m.index+1], m.clone(state))
	if len(m.entries) > m.limit {
		drop := len(m.entries) - m.limit
		clear(m.entries[:drop])
		m.entries = m.entries[drop:]
	}
	m.index = len(m.entries) - 1
}

// Undo steps the cursor back and returns a copy of the entry there. ok is
// false at the start of the list.
func (m *Manager[T]) Undo() (state T, ok bool) {
	if !m.CanUndo() {
		return state, false
	}
	m.index--
	return m.clone(m.entries[m.index]), true
}

// Redo steps the cursor forward and returns a copy of the entry there. ok is
// false at the end of the list.
func (m *Manager[T]) Redo() (state T, ok bool) {
	if !m.CanRedo() {
		return state, false
	}
	m.index++
	return m.clone(m.entries[m.index]), true
}

func (m *Manager[T]) CanUndo() bool { return m.index > 0 }

func (m *Manager[T]) CanRedo() bool { return m.index < len(m.entries)-1 }

// Len returns the number of stored snapshots.
func (m *Manager[T]) Len() int { return len(m.entries) }

// Index returns the cursor position, -1 when empty.
func (m *Manager[T]) Index() int { return m.index }

// Current returns a copy of the entry at the cursor.
func (m *Manager[T]) Current() (state T, ok bool) {
	if m.index < 0 {
		return state, false
	}
	return m.clone(m.entries[m.index]), true
}

// Reset discards every entry.
func (m *Manager[T]) Reset() {
	clear(m.entries)
	m.entries = m.entries[:0]
	m.index = -1
}
