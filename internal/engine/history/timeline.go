package history

// DefaultLimit is the timeline capacity used when none is configured.
const DefaultLimit = 50

// Timeline is a capacity-bounded, cursor-addressed sequence of snapshots
// implementing linear undo/redo.
//
// Invariants:
//   - -1 <= Index() < Len(); Index() == -1 only when the timeline is empty
//   - entries left of the cursor are undo targets, right of it redo targets
//   - no two adjacent entries are equal
//   - Len() <= Limit()
//
// Timeline is not safe for concurrent use.
type Timeline struct {
	entries []Snapshot
	index   int
	limit   int
}

// NewTimeline creates an empty timeline holding at most limit snapshots.
// A non-positive limit selects DefaultLimit.
func NewTimeline(limit int) *Timeline {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Timeline{
		index: -1,
		limit: limit,
	}
}

// Push records s as the new current state.
//
// Pushing a snapshot equal to the current one is a no-op and returns false.
// Otherwise the redo branch is discarded, s is appended, and the oldest
// entry is evicted if the capacity is exceeded. On eviction the cursor is
// left unchanged, which keeps it on the tail.
func (t *Timeline) Push(s Snapshot) bool {
	if t.index >= 0 && t.entries[t.index].Equal(s) {
		return false
	}

	if t.index < len(t.entries)-1 {
		t.truncate(t.index + 1)
	}

	t.entries = append(t.entries, s)
	if len(t.entries) > t.limit {
		t.evict(len(t.entries) - t.limit)
		return true
	}
	t.index++
	return true
}

// Back moves the cursor one step toward the start and returns the snapshot
// it now points at. Returns false if there is nothing to undo.
func (t *Timeline) Back() (Snapshot, bool) {
	if !t.CanUndo() {
		return Snapshot{}, false
	}
	t.index--
	return t.entries[t.index], true
}

// Forward moves the cursor one step toward the tail and returns the
// snapshot it now points at. Returns false if there is nothing to redo.
func (t *Timeline) Forward() (Snapshot, bool) {
	if !t.CanRedo() {
		return Snapshot{}, false
	}
	t.index++
	return t.entries[t.index], true
}

// CanUndo returns true if there is a snapshot before the cursor.
func (t *Timeline) CanUndo() bool {
	return t.index > 0
}

// CanRedo returns true if there is a snapshot after the cursor.
func (t *Timeline) CanRedo() bool {
	return t.index >= 0 && t.index < len(t.entries)-1
}

// Current returns the snapshot at the cursor.
func (t *Timeline) Current() (Snapshot, bool) {
	if t.index < 0 {
		return Snapshot{}, false
	}
	return t.entries[t.index], true
}

// At returns the snapshot at position i.
func (t *Timeline) At(i int) (Snapshot, bool) {
	if i < 0 || i >= len(t.entries) {
		return Snapshot{}, false
	}
	return t.entries[i], true
}

// Len returns the number of snapshots.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// Index returns the cursor position.
func (t *Timeline) Index() int {
	return t.index
}

// Limit returns the capacity.
func (t *Timeline) Limit() int {
	return t.limit
}

// SetLimit changes the capacity. If the timeline is larger than the new
// limit, the oldest snapshots are evicted; the cursor follows its snapshot
// and is clamped to the start if that snapshot was evicted.
func (t *Timeline) SetLimit(limit int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	t.limit = limit

	if excess := len(t.entries) - limit; excess > 0 {
		t.evict(excess)
		t.index -= excess
		if t.index < 0 {
			t.index = 0
		}
	}
}

// Snapshots returns a copy of all snapshots in order.
func (t *Timeline) Snapshots() []Snapshot {
	out := make([]Snapshot, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clear empties the timeline.
func (t *Timeline) Clear() {
	t.truncate(0)
	t.index = -1
}

// truncate drops every entry from position n onward.
func (t *Timeline) truncate(n int) {
	for i := n; i < len(t.entries); i++ {
		t.entries[i] = Snapshot{}
	}
	t.entries = t.entries[:n]
}

// evict drops the n oldest entries without moving the cursor.
func (t *Timeline) evict(n int) {
	remaining := copy(t.entries, t.entries[n:])
	t.truncate(remaining)
}
