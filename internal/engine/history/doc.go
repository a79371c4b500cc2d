// Package history provides undo/redo for the canvas editor.
//
// The history system records whole-scene snapshots rather than inverse
// commands. Every structural change reported by the canvas engine produces a
// snapshot; undo and redo replace the entire scene with a recorded one.
//
// # Timeline
//
// A Timeline is a capacity-bounded sequence of snapshots with a cursor:
//
//	tl := NewTimeline(50)
//	tl.Push(snap)          // skips adjacent duplicates, drops the redo branch
//	prev, ok := tl.Back()  // undo target
//	next, ok := tl.Forward()
//
// When the capacity is exceeded the oldest snapshot is evicted.
//
// # Manager
//
// The Manager connects a Timeline to a canvas Engine:
//
//	m := NewManager(canvas, WithLimit(cfg.History.Limit))
//	m.Subscribe(bus)    // commit on object added/modified/removed, path created
//	m.RecordBaseline()  // first entry: the initial scene
//
//	m.Undo()
//	m.Redo()
//
// # Restore Suppression
//
// Restoring a snapshot reloads the whole scene, and the engine reports that
// reload as ordinary changes. The manager is in StateRestoring from the
// moment it asks the engine to load until the engine's completion callback
// runs; commits in that window are ignored. Undo and Redo requested while a
// restore is in flight are ignored as well.
//
// # Edit Sessions
//
// Objects with an interactive edit session (editable text) implement
// EditNotifier. The manager hooks each such object once, keyed by its
// identity, and commits when a session ends, so a typing session becomes one
// timeline entry. Hooks are rebuilt after every restore because the reload
// creates new object instances.
package history
