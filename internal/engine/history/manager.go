package history

import (
	"context"
	"errors"

	"github.com/dshills/canvasforge/internal/event"
	"github.com/dshills/canvasforge/internal/event/events"
)

// IDField is the custom object field always included in snapshots so object
// identity survives a save/restore round trip.
const IDField = "id"

// State is the manager's restore state.
type State int

const (
	// StateIdle means change notifications are committed to the timeline.
	StateIdle State = iota

	// StateRestoring means a restore is in flight and commits are inert.
	StateRestoring
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// Object is a scene object as seen by the history manager.
type Object interface {
	// ID returns the object's stable identity.
	ID() string

	// Type returns the object's type discriminator.
	Type() string
}

// EditNotifier is implemented by objects that support an interactive edit
// session. The callback runs when a session ends; cancel detaches it.
type EditNotifier interface {
	Object
	OnEditSessionEnd(fn func() error) (cancel func())
}

// Engine is the canvas engine contract the manager depends on.
type Engine interface {
	// Serialize captures the whole scene. Only the named custom fields are
	// included alongside the built-in render properties.
	Serialize(extra []string) (Snapshot, error)

	// Load replaces the entire scene with the snapshot's content and calls
	// onComplete exactly once when done, synchronously or later.
	Load(snap Snapshot, onComplete func()) error

	// ForEachObject visits the objects currently in the scene, in order.
	ForEachObject(fn func(obj Object))

	// RequestRender asks the engine to redraw.
	RequestRender()
}

// Logger receives diagnostic messages from the manager.
type Logger interface {
	Debug(msg string, args ...any)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit sets the timeline capacity.
func WithLimit(limit int) Option {
	return func(m *Manager) {
		m.timeline = NewTimeline(limit)
	}
}

// WithExtraFields adds custom object fields to every snapshot.
// IDField is always included.
func WithExtraFields(fields ...string) Option {
	return func(m *Manager) {
		for _, f := range fields {
			if f != IDField && f != "" {
				m.extra = append(m.extra, f)
			}
		}
	}
}

// WithLogger sets the logger for diagnostic messages.
func WithLogger(l Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// Manager owns the undo/redo timeline for one editor session.
//
// It commits a snapshot whenever the engine reports a structural change and
// replays snapshots on Undo and Redo. While a replay is in flight the
// manager is in StateRestoring and every commit is inert, so the engine's
// own notifications during the reload never reach the timeline.
//
// Manager is not safe for concurrent use. All calls, including the engine's
// completion callbacks, must come from the same logical thread.
type Manager struct {
	engine   Engine
	timeline *Timeline
	extra    []string
	logger   Logger

	state      State
	restoreSeq uint64

	// Edit-session hooks keyed by object identity.
	hooks map[string]func()

	bus  event.Bus
	subs []event.Subscription
}

// NewManager creates a history manager over the given engine.
func NewManager(engine Engine, opts ...Option) *Manager {
	m := &Manager{
		engine:   engine,
		timeline: NewTimeline(DefaultLimit),
		extra:    []string{IDField},
		hooks:    make(map[string]func()),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// changeTopics are the structural-change notifications that trigger a commit.
var changeTopics = []event.Topic{
	events.TopicObjectAdded,
	events.TopicObjectModified,
	events.TopicObjectRemoved,
	events.TopicPathCreated,
}

// Subscribe attaches the manager to the engine's change notifications.
func (m *Manager) Subscribe(bus event.Bus) error {
	for _, t := range changeTopics {
		sub, err := bus.Subscribe(t, event.AsHandler[events.ObjectChanged](m.handleChange))
		if err != nil {
			m.unsubscribe()
			return err
		}
		m.subs = append(m.subs, sub)
	}
	m.bus = bus
	return nil
}

// Close detaches the manager from the bus and from every object hook.
func (m *Manager) Close() {
	m.unsubscribe()
	m.detachAll()
}

func (m *Manager) unsubscribe() {
	for _, sub := range m.subs {
		if m.bus != nil {
			_ = m.bus.Unsubscribe(sub)
		}
	}
	m.subs = nil
}

// handleChange commits on a structural change unless a restore is in flight.
func (m *Manager) handleChange(ctx context.Context, ev event.Event[events.ObjectChanged]) error {
	if m.state == StateRestoring {
		return nil
	}

	switch ev.Type {
	case events.TopicObjectAdded:
		m.AttachHooks()
	case events.TopicObjectRemoved:
		m.detach(ev.Payload.ObjectID)
	}

	_, err := m.Commit()
	return err
}

// RecordBaseline attaches edit hooks to the objects already present and
// commits the initial scene as the first timeline entry.
func (m *Manager) RecordBaseline() error {
	m.AttachHooks()
	_, err := m.Commit()
	return err
}

// Commit snapshots the current scene and pushes it onto the timeline.
//
// It is a no-op while restoring and when the scene equals the snapshot at
// the cursor. Returns true if a new entry was recorded. A serialization
// failure is returned as *SerializationError and leaves the timeline intact.
func (m *Manager) Commit() (bool, error) {
	if m.state == StateRestoring {
		return false, nil
	}
	if m.engine == nil {
		return false, ErrNoEngine
	}

	snap, err := m.engine.Serialize(m.extra)
	if err != nil {
		return false, &SerializationError{Err: err}
	}

	return m.timeline.Push(snap), nil
}

// Undo steps back one snapshot and restores it.
// Returns false without error when there is nothing to undo or a restore
// is already in flight.
func (m *Manager) Undo() (bool, error) {
	if m.state == StateRestoring {
		m.debug("undo ignored: restore in progress")
		return false, nil
	}

	snap, ok := m.timeline.Back()
	if !ok {
		return false, nil
	}
	if err := m.Restore(snap); err != nil {
		m.timeline.Forward()
		return false, err
	}
	return true, nil
}

// Redo steps forward one snapshot and restores it.
// Returns false without error when there is nothing to redo or a restore
// is already in flight.
func (m *Manager) Redo() (bool, error) {
	if m.state == StateRestoring {
		m.debug("redo ignored: restore in progress")
		return false, nil
	}

	snap, ok := m.timeline.Forward()
	if !ok {
		return false, nil
	}
	if err := m.Restore(snap); err != nil {
		m.timeline.Back()
		return false, err
	}
	return true, nil
}

// Restore replaces the whole scene with snap.
//
// The manager stays in StateRestoring until the engine calls the completion
// callback. If the engine never calls it, the manager stays suppressed.
// A synchronous Load error means the reload never started; the state is
// returned to idle and the error is passed through.
func (m *Manager) Restore(snap Snapshot) error {
	if m.engine == nil {
		return ErrNoEngine
	}

	m.restoreSeq++
	seq := m.restoreSeq
	m.state = StateRestoring

	err := m.engine.Load(snap, func() { m.finishRestore(seq) })
	if err != nil {
		if m.restoreSeq == seq {
			m.state = StateIdle
		}
		return err
	}
	return nil
}

// finishRestore is the completion callback of the restore numbered seq.
// Stale and repeated completions are ignored.
func (m *Manager) finishRestore(seq uint64) {
	if seq != m.restoreSeq || m.state != StateRestoring {
		return
	}

	// Every object instance is new after a full reload.
	m.detachAll()
	m.AttachHooks()

	m.engine.RequestRender()
	m.state = StateIdle
}

// AttachHooks attaches the edit-session-ended hook to every object that
// supports it and is not hooked yet.
func (m *Manager) AttachHooks() {
	if m.engine == nil {
		return
	}
	m.engine.ForEachObject(func(obj Object) {
		en, ok := obj.(EditNotifier)
		if !ok {
			return
		}
		id := en.ID()
		if _, hooked := m.hooks[id]; hooked {
			return
		}
		m.hooks[id] = en.OnEditSessionEnd(m.onEditSessionEnd)
	})
}

func (m *Manager) onEditSessionEnd() error {
	_, err := m.Commit()
	return err
}

func (m *Manager) detach(id string) {
	if cancel, ok := m.hooks[id]; ok {
		if cancel != nil {
			cancel()
		}
		delete(m.hooks, id)
	}
}

func (m *Manager) detachAll() {
	for id := range m.hooks {
		m.detach(id)
	}
}

// Hooked reports whether the object with the given identity has an
// edit-session hook attached.
func (m *Manager) Hooked(id string) bool {
	_, ok := m.hooks[id]
	return ok
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	return m.timeline.CanUndo()
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	return m.timeline.CanRedo()
}

// State returns the current restore state.
func (m *Manager) State() State {
	return m.state
}

// Len returns the number of snapshots in the timeline.
func (m *Manager) Len() int {
	return m.timeline.Len()
}

// Index returns the timeline cursor.
func (m *Manager) Index() int {
	return m.timeline.Index()
}

// Current returns the snapshot at the cursor.
func (m *Manager) Current() (Snapshot, bool) {
	return m.timeline.Current()
}

// Snapshots returns a copy of the timeline.
func (m *Manager) Snapshots() []Snapshot {
	return m.timeline.Snapshots()
}

// Limit returns the timeline capacity.
func (m *Manager) Limit() int {
	return m.timeline.Limit()
}

// SetLimit changes the timeline capacity, evicting the oldest snapshots if
// the timeline is larger than the new limit.
func (m *Manager) SetLimit(limit int) {
	m.timeline.SetLimit(limit)
}

func (m *Manager) debug(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Debug(msg, args...)
	}
}

// IsSerializationError reports whether err came from a failed snapshot.
func IsSerializationError(err error) bool {
	return errors.Is(err, ErrSerialization)
}
