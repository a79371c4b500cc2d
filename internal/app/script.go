package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/canvasforge/internal/barcode"
	"github.com/dshills/canvasforge/internal/engine/scene"
	"github.com/dshills/canvasforge/internal/input/keymap"
)

// Script is a recorded editing session replayed against an Editor.
//
//	name: add and undo
//	steps:
//	  - action: addCircle
//	  - action: key
//	    keys: ctrl+z
//	    expect:
//	      objects: 0
//	      canRedo: true
type Script struct {
	Name  string       `yaml:"name"`
	Steps []Step       `yaml:"steps"`
	Final *Expectation `yaml:"expect,omitempty"`
}

// Step is one scripted action.
type Step struct {
	// Action is one of the Step* names.
	Action string `yaml:"action"`

	ID     string         `yaml:"id,omitempty"`
	IDs    []string       `yaml:"ids,omitempty"`
	Text   string         `yaml:"text,omitempty"`
	Keys   string         `yaml:"keys,omitempty"`
	DX     float64        `yaml:"dx,omitempty"`
	DY     float64        `yaml:"dy,omitempty"`
	Points []scene.Point  `yaml:"points,omitempty"`
	Code   *barcode.State `yaml:"barcode,omitempty"`
	Mode   barcode.Mode   `yaml:"mode,omitempty"`

	// Expect is checked after the step and the work it queued have run.
	Expect *Expectation `yaml:"expect,omitempty"`
}

// Step actions.
const (
	StepAddCircle     = "addCircle"
	StepAddText       = "addText"
	StepAddBarcode    = "addBarcode"
	StepUpdateBarcode = "updateBarcode"
	StepDrawPath      = "drawPath"
	StepSelect        = "select"
	StepMove          = "move"
	StepBeginEdit     = "beginEdit"
	StepType          = "type"
	StepSetText       = "setText"
	StepEndEdit       = "endEdit"
	StepEdit          = "edit"
	StepDelete        = "delete"
	StepBackspace     = "backspace"
	StepUndo          = "undo"
	StepRedo          = "redo"
	StepKey           = "key"
	StepReload        = "reload"
)

// Expectation describes the editor state after a step. Unset fields are
// not checked. Query maps gjson paths over the current snapshot to their
// expected string values, for example "objects.0.type": "circle".
type Expectation struct {
	Objects *int              `yaml:"objects,omitempty"`
	Length  *int              `yaml:"length,omitempty"`
	Index   *int              `yaml:"index,omitempty"`
	CanUndo *bool             `yaml:"canUndo,omitempty"`
	CanRedo *bool             `yaml:"canRedo,omitempty"`
	IDs     []string          `yaml:"ids,omitempty"`
	Query   map[string]string `yaml:"query,omitempty"`
}

// StepError reports the step a replay stopped at.
type StepError struct {
	Index  int
	Action string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Index+1, e.Action, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrExpectation marks every failed expectation.
var ErrExpectation = errors.New("expectation failed")

// ParseScript decodes a YAML script. Unknown keys are rejected.
func ParseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, st := range s.Steps {
		if !knownStep(st.Action) {
			return nil, &StepError{Index: i, Action: st.Action, Err: ErrUnknownAction}
		}
	}
	return &s, nil
}

// LoadScript reads and parses the script at path.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	s, err := ParseScript(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

var steps = []string{
	StepAddCircle, StepAddText, StepAddBarcode, StepUpdateBarcode, StepDrawPath,
	StepSelect, StepMove, StepBeginEdit, StepType, StepSetText, StepEndEdit,
	StepEdit, StepDelete, StepBackspace, StepUndo, StepRedo, StepKey, StepReload,
}

func knownStep(action string) bool {
	for _, s := range steps {
		if s == action {
			return true
		}
	}
	return false
}

// Replay runs every step in order. After each step the loop is drained so
// deferred scene reloads complete before the next step, then the step's
// expectation is checked. The script's final expectation is checked last.
func (e *Editor) Replay(ctx context.Context, s *Script) error {
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runStep(ctx, st); err != nil {
			return &StepError{Index: i, Action: st.Action, Err: err}
		}
		e.Drain()
		if err := e.Check(st.Expect); err != nil {
			return &StepError{Index: i, Action: st.Action, Err: err}
		}
		e.log.Debug("step %d %s ok (history %d/%d)", i+1, st.Action, e.history.Index()+1, e.history.Len())
	}
	return e.Check(s.Final)
}

func (e *Editor) runStep(ctx context.Context, st Step) error {
	var err error
	switch st.Action {
	case StepAddCircle:
		_, err = e.AddCircle(ctx)
	case StepAddText:
		_, err = e.AddText(ctx)
	case StepAddBarcode:
		var state barcode.State
		if state, err = e.scriptBarcode(st); err == nil {
			mode := st.Mode
			if mode == "" {
				mode = barcode.ModeInsert
			}
			_, err = e.AddBarcode(ctx, state, mode)
		}
	case StepUpdateBarcode:
		var state barcode.State
		if state, err = e.scriptBarcode(st); err == nil {
			err = e.UpdateBarcode(ctx, st.ID, state)
		}
	case StepDrawPath:
		_, err = e.DrawPath(ctx, st.Points)
	case StepSelect:
		err = e.Select(st.IDs...)
	case StepMove:
		err = e.Move(ctx, st.ID, st.DX, st.DY)
	case StepBeginEdit:
		err = e.BeginEdit(st.ID)
	case StepType:
		err = e.Type(st.ID, st.Text)
	case StepSetText:
		err = e.SetText(st.ID, st.Text)
	case StepEndEdit:
		err = e.EndEdit(st.ID)
	case StepEdit:
		if err = e.BeginEdit(st.ID); err == nil {
			if err = e.SetText(st.ID, st.Text); err == nil {
				err = e.EndEdit(st.ID)
			}
		}
	case StepDelete:
		_, err = e.DeleteSelection(ctx)
	case StepBackspace:
		_, err = e.Backspace(ctx)
	case StepUndo:
		_, err = e.Undo()
	case StepRedo:
		_, err = e.Redo()
	case StepKey:
		var c keymap.Chord
		if c, err = keymap.ParseChord(st.Keys); err == nil {
			_, err = e.HandleKey(ctx, c.Event())
		}
	case StepReload:
		err = e.ReloadConfig()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, st.Action)
	}
	return err
}

// scriptBarcode normalizes the step's barcode: the type name is parsed
// leniently and missing options take the configured defaults.
func (e *Editor) scriptBarcode(st Step) (barcode.State, error) {
	if st.Code == nil {
		return barcode.State{}, errors.New("barcode required")
	}
	state := *st.Code
	if state.Type == "" {
		state.Type = e.cfg.BarcodeType()
	} else {
		t, err := barcode.ParseType(string(state.Type))
		if err != nil {
			return barcode.State{}, err
		}
		state.Type = t
	}
	if state.Options == (barcode.Options{}) {
		state.Options = e.cfg.Barcode.Options
	}
	return state, nil
}

// Check compares the editor state with want. A nil expectation passes.
func (e *Editor) Check(want *Expectation) error {
	if want == nil {
		return nil
	}

	snap, err := e.Snapshot()
	if err != nil {
		return err
	}

	var failures []string
	fail := func(what string, got, exp any) {
		failures = append(failures, fmt.Sprintf("%s = %v, want %v", what, got, exp))
	}

	if want.Objects != nil && e.canvas.Len() != *want.Objects {
		fail("objects", e.canvas.Len(), *want.Objects)
	}
	if want.Length != nil && e.history.Len() != *want.Length {
		fail("history length", e.history.Len(), *want.Length)
	}
	if want.Index != nil && e.history.Index() != *want.Index {
		fail("history index", e.history.Index(), *want.Index)
	}
	if want.CanUndo != nil && e.history.CanUndo() != *want.CanUndo {
		fail("canUndo", e.history.CanUndo(), *want.CanUndo)
	}
	if want.CanRedo != nil && e.history.CanRedo() != *want.CanRedo {
		fail("canRedo", e.history.CanRedo(), *want.CanRedo)
	}
	if want.IDs != nil {
		got := scene.ObjectIDs(snap)
		if strings.Join(got, ",") != strings.Join(want.IDs, ",") {
			fail("ids", got, want.IDs)
		}
	}

	paths := make([]string, 0, len(want.Query))
	for p := range want.Query {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		if got := scene.Query(snap, p).String(); got != want.Query[p] {
			fail(p, got, want.Query[p])
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%w: %s", ErrExpectation, strings.Join(failures, "; "))
	}
	return nil
}

// Dump is a readable summary of the editor state.
type Dump struct {
	Background string       `yaml:"background"`
	Objects    []ObjectDump `yaml:"objects"`
	Selected   []string     `yaml:"selected,omitempty"`
	History    HistoryDump  `yaml:"history"`
}

// ObjectDump summarizes one object.
type ObjectDump struct {
	ID      string         `yaml:"id"`
	Type    string         `yaml:"type"`
	Left    float64        `yaml:"left"`
	Top     float64        `yaml:"top"`
	Text    string         `yaml:"text,omitempty"`
	Barcode *barcode.State `yaml:"barcode,omitempty"`
	Points  int            `yaml:"points,omitempty"`
}

// HistoryDump summarizes the undo history.
type HistoryDump struct {
	Length  int    `yaml:"length"`
	Index   int    `yaml:"index"`
	Limit   int    `yaml:"limit"`
	CanUndo bool   `yaml:"canUndo"`
	CanRedo bool   `yaml:"canRedo"`
	State   string `yaml:"state"`
}

// Dump captures the current editor state.
func (e *Editor) Dump() Dump {
	d := Dump{
		Background: e.canvas.Background(),
		History: HistoryDump{
			Length:  e.history.Len(),
			Index:   e.history.Index(),
			Limit:   e.history.Limit(),
			CanUndo: e.history.CanUndo(),
			CanRedo: e.history.CanRedo(),
			State:   e.history.State().String(),
		},
	}

	for _, obj := range e.canvas.Objects() {
		p := obj.Properties()
		od := ObjectDump{ID: obj.ID(), Type: obj.Type(), Left: p.Left, Top: p.Top}
		switch o := obj.(type) {
		case *scene.Text:
			od.Text = o.Text()
		case *scene.Image:
			bc := o.Barcode
			od.Barcode = &bc
		case *scene.Path:
			od.Points = len(o.Points)
		}
		d.Objects = append(d.Objects, od)
	}
	for _, obj := range e.canvas.Active() {
		d.Selected = append(d.Selected, obj.ID())
	}
	return d
}

// EncodeDump writes d as YAML.
func EncodeDump(d Dump) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
