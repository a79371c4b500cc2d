package keymap

import (
	"errors"
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
)

// ErrInvalidChord is returned for a key chord that cannot be parsed.
var ErrInvalidChord = errors.New("invalid key chord")

// ErrUnknownAction is returned when binding a key to an unknown action.
var ErrUnknownAction = errors.New("unknown action")

// Action names an editor command a key can trigger.
type Action string

// Editor actions.
const (
	ActionUndo            Action = "history.undo"
	ActionRedo            Action = "history.redo"
	ActionDeleteSelection Action = "selection.delete"
	ActionBackspace       Action = "text.backspace"
	ActionEndEdit         Action = "text.endEdit"
	ActionAddCircle       Action = "canvas.addCircle"
	ActionAddText         Action = "canvas.addText"
)

// Actions lists every action that can be bound.
var Actions = []Action{
	ActionUndo,
	ActionRedo,
	ActionDeleteSelection,
	ActionBackspace,
	ActionEndEdit,
	ActionAddCircle,
	ActionAddText,
}

func knownAction(a Action) bool {
	for _, k := range Actions {
		if k == a {
			return true
		}
	}
	return false
}

// Binding maps a chord to an action.
type Binding struct {
	Chord  Chord
	Action Action
}

// String returns "Ctrl+Z -> history.undo".
func (b Binding) String() string {
	return b.Chord.String() + " -> " + string(b.Action)
}

// Keymap resolves key chords to actions. The zero value is not usable;
// create one with New or Default.
type Keymap struct {
	bindings map[Chord]Action
}

// New creates an empty keymap.
func New() *Keymap {
	return &Keymap{bindings: make(map[Chord]Action)}
}

// defaults are the built-in bindings.
var defaults = []struct {
	keys   string
	action Action
}{
	{"ctrl+z", ActionUndo},
	{"ctrl+y", ActionRedo},
	{"ctrl+shift+z", ActionRedo},
	{"meta+z", ActionUndo},
	{"meta+shift+z", ActionRedo},
	{"delete", ActionDeleteSelection},
	{"escape", ActionDeleteSelection},
	{"backspace", ActionBackspace},
	{"enter", ActionEndEdit},
}

// Default creates a keymap with the built-in bindings.
func Default() *Keymap {
	k := New()
	for _, d := range defaults {
		if err := k.Bind(d.keys, d.action); err != nil {
			panic(fmt.Sprintf("keymap: bad default binding %q: %v", d.keys, err))
		}
	}
	return k
}

// Bind maps the chord described by keys to action, replacing any existing
// binding of that chord.
func (k *Keymap) Bind(keys string, action Action) error {
	if !knownAction(action) {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	c, err := ParseChord(keys)
	if err != nil {
		return err
	}
	k.bindings[c] = action
	return nil
}

// Unbind removes the binding of the chord described by keys.
func (k *Keymap) Unbind(keys string) error {
	c, err := ParseChord(keys)
	if err != nil {
		return err
	}
	delete(k.bindings, c)
	return nil
}

// Apply rebinds actions from configuration: for every action named in
// overrides, its existing chords are dropped and the listed ones bound.
// Nothing changes if any entry is invalid.
func (k *Keymap) Apply(overrides map[string][]string) error {
	next := k.Clone()
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		action := Action(name)
		if !knownAction(action) {
			return fmt.Errorf("%w: %q", ErrUnknownAction, name)
		}
		for c, a := range next.bindings {
			if a == action {
				delete(next.bindings, c)
			}
		}
		for _, keys := range overrides[name] {
			if err := next.Bind(keys, action); err != nil {
				return fmt.Errorf("binding %s: %w", name, err)
			}
		}
	}

	k.bindings = next.bindings
	return nil
}

// Lookup returns the action bound to a tcell key event.
func (k *Keymap) Lookup(ev *tcell.EventKey) (Action, bool) {
	return k.LookupChord(FromEvent(ev))
}

// LookupChord returns the action bound to c.
func (k *Keymap) LookupChord(c Chord) (Action, bool) {
	a, ok := k.bindings[c]
	return a, ok
}

// Bindings returns every binding ordered by action, then chord.
func (k *Keymap) Bindings() []Binding {
	out := make([]Binding, 0, len(k.bindings))
	for c, a := range k.bindings {
		out = append(out, Binding{Chord: c, Action: a})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].Chord.String() < out[j].Chord.String()
	})
	return out
}

// Clone returns an independent copy.
func (k *Keymap) Clone() *Keymap {
	c := New()
	for chord, a := range k.bindings {
		c.bindings[chord] = a
	}
	return c
}
