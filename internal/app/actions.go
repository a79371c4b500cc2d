package app

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"

	"github.com/dshills/canvasforge/internal/barcode"
	"github.com/dshills/canvasforge/internal/engine/scene"
	"github.com/dshills/canvasforge/internal/input/keymap"
)

// Freehand stroke style.
const (
	pathStroke      = "black"
	pathStrokeWidth = 2
)

// AddCircle adds a circle with the configured defaults and selects it.
func (e *Editor) AddCircle(ctx context.Context) (*scene.Circle, error) {
	if e.closed {
		return nil, ErrClosed
	}
	c := e.cfg.Shapes.Circle

	props := scene.DefaultProps()
	props.Left, props.Top = c.Left, c.Top
	props.Fill, props.Stroke, props.StrokeWidth = c.Fill, c.Stroke, c.StrokeWidth

	obj := scene.NewCircle(e.nextID("circle", &e.circles), props, c.Radius)
	if err := e.addAndSelect(ctx, obj); err != nil {
		return nil, NewOperationError("addCircle", obj.ID(), err)
	}
	return obj, nil
}

// AddText adds an editable text with the configured defaults and selects it.
func (e *Editor) AddText(ctx context.Context) (*scene.Text, error) {
	if e.closed {
		return nil, ErrClosed
	}
	t := e.cfg.Shapes.Text

	props := scene.DefaultProps()
	props.Left, props.Top, props.Fill = t.Left, t.Top, t.Fill

	obj := scene.NewText(e.nextID("text", &e.texts), props, t.Text, t.FontSize)
	if err := e.addAndSelect(ctx, obj); err != nil {
		return nil, NewOperationError("addText", obj.ID(), err)
	}
	return obj, nil
}

// AddBarcode validates state and adds a barcode image.
//
// In ModeReplace the selected barcode image is swapped for the new one at
// the same position, as a single undo step. With no barcode selected,
// ModeReplace inserts.
func (e *Editor) AddBarcode(ctx context.Context, state barcode.State, mode barcode.Mode) (*scene.Image, error) {
	if e.closed {
		return nil, ErrClosed
	}
	if err := state.Validate(); err != nil {
		return nil, NewOperationError("addBarcode", string(state.Type), err).WithContext(state.Value)
	}

	b := e.cfg.Barcode
	props := scene.DefaultProps()
	props.Left, props.Top = b.Left, b.Top

	obj := scene.NewImage(uuid.NewString(), props, state)

	if mode == barcode.ModeReplace {
		if old, ok := e.selectedBarcode(); ok {
			op := old.Properties()
			p := obj.Properties()
			p.Left, p.Top, p.ScaleX, p.ScaleY, p.Angle = op.Left, op.Top, op.ScaleX, op.ScaleY, op.Angle

			if err := e.canvas.Replace(ctx, old.ID(), obj); err != nil {
				return nil, NewOperationError("replaceBarcode", old.ID(), err)
			}
			e.canvas.RequestRender()
			return obj, nil
		}
		e.log.Debug("replace requested without a selected barcode, inserting")
	}

	if err := e.addAndSelect(ctx, obj); err != nil {
		return nil, NewOperationError("addBarcode", obj.ID(), err)
	}
	return obj, nil
}

// UpdateBarcode validates state and applies it to the barcode image id.
func (e *Editor) UpdateBarcode(ctx context.Context, id string, state barcode.State) error {
	if e.closed {
		return ErrClosed
	}
	if err := state.Validate(); err != nil {
		return NewOperationError("updateBarcode", id, err).WithContext(state.Value)
	}

	err := e.canvas.Modify(ctx, id, func(obj scene.Object) error {
		img, ok := obj.(*scene.Image)
		if !ok {
			return ErrNotBarcode
		}
		img.Barcode = state
		return nil
	})
	if err != nil {
		return NewOperationError("updateBarcode", id, err)
	}
	e.canvas.RequestRender()
	return nil
}

// SelectedBarcode returns the barcode state of the single selected image.
func (e *Editor) SelectedBarcode() (id string, state barcode.State, ok bool) {
	img, ok := e.selectedBarcode()
	if !ok {
		return "", barcode.State{}, false
	}
	return img.ID(), img.Barcode, true
}

func (e *Editor) selectedBarcode() (*scene.Image, bool) {
	active := e.canvas.Active()
	if len(active) != 1 {
		return nil, false
	}
	img, ok := active[0].(*scene.Image)
	return img, ok
}

// DrawPath adds a freehand stroke through points.
func (e *Editor) DrawPath(ctx context.Context, points []scene.Point) (*scene.Path, error) {
	if e.closed {
		return nil, ErrClosed
	}
	props := scene.DefaultProps()
	props.Stroke, props.StrokeWidth = pathStroke, pathStrokeWidth
	if len(points) > 0 {
		props.Left, props.Top = points[0].X, points[0].Y
	}

	obj := scene.NewPath(e.nextID("path", &e.paths), props, points)
	if err := e.canvas.AddPath(ctx, obj); err != nil {
		return nil, NewOperationError("drawPath", obj.ID(), err)
	}
	e.canvas.RequestRender()
	return obj, nil
}

// Select replaces the selection.
func (e *Editor) Select(ids ...string) error {
	if e.closed {
		return ErrClosed
	}
	if err := e.canvas.SetActive(ids...); err != nil {
		return NewOperationError("select", strings.Join(ids, ","), err)
	}
	return nil
}

// Move translates an object.
func (e *Editor) Move(ctx context.Context, id string, dx, dy float64) error {
	if e.closed {
		return ErrClosed
	}
	err := e.canvas.Modify(ctx, id, func(obj scene.Object) error {
		p := obj.Properties()
		p.Left += dx
		p.Top += dy
		return nil
	})
	if err != nil {
		return NewOperationError("move", id, err)
	}
	e.canvas.RequestRender()
	return nil
}

// BeginEdit selects the text id and opens an edit session on it.
func (e *Editor) BeginEdit(id string) error {
	t, err := e.text("beginEdit", id)
	if err != nil {
		return err
	}
	if err := e.canvas.SetActive(id); err != nil {
		return NewOperationError("beginEdit", id, err)
	}
	t.BeginEdit()
	return nil
}

// Type inserts s at the end of the text id. No history entry is recorded
// until the edit session ends.
func (e *Editor) Type(id, s string) error {
	t, err := e.text("type", id)
	if err != nil {
		return err
	}
	if !t.IsEditing() {
		t.BeginEdit()
	}
	t.Insert(s)
	return nil
}

// SetText replaces the content of the text id within its edit session.
func (e *Editor) SetText(id, s string) error {
	t, err := e.text("setText", id)
	if err != nil {
		return err
	}
	if !t.IsEditing() {
		t.BeginEdit()
	}
	t.SetText(s)
	return nil
}

// EndEdit closes the edit session of the text id, committing the edit as
// one history entry.
func (e *Editor) EndEdit(id string) error {
	t, err := e.text("endEdit", id)
	if err != nil {
		return err
	}
	if err := t.EndEdit(); err != nil {
		return NewOperationError("endEdit", id, err)
	}
	e.canvas.RequestRender()
	return nil
}

// Editing returns the text object with an open edit session, preferring
// the selected one.
func (e *Editor) Editing() (*scene.Text, bool) {
	for _, obj := range e.canvas.Active() {
		if t, ok := obj.(*scene.Text); ok && t.IsEditing() {
			return t, true
		}
	}
	for _, obj := range e.canvas.Objects() {
		if t, ok := obj.(*scene.Text); ok && t.IsEditing() {
			return t, true
		}
	}
	return nil, false
}

// DeleteSelection removes every selected object, ending open edit sessions
// first. It returns the number of objects removed.
func (e *Editor) DeleteSelection(ctx context.Context) (int, error) {
	if e.closed {
		return 0, ErrClosed
	}
	active := e.canvas.Active()
	if len(active) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(active))
	for _, obj := range active {
		if t, ok := obj.(*scene.Text); ok && t.IsEditing() {
			if err := t.EndEdit(); err != nil {
				return 0, NewOperationError("delete", t.ID(), err).WithContext("end edit")
			}
		}
		ids = append(ids, obj.ID())
	}

	if err := e.canvas.Remove(ctx, ids...); err != nil {
		return 0, NewOperationError("delete", strings.Join(ids, ","), err)
	}
	e.canvas.DiscardActive()
	e.canvas.RequestRender()
	return len(ids), nil
}

// Backspace removes the single selected text when its content is empty or
// whitespace. Otherwise, inside an edit session, it deletes the last
// character. It reports whether an object was removed.
func (e *Editor) Backspace(ctx context.Context) (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	active := e.canvas.Active()
	if len(active) != 1 {
		return false, nil
	}
	t, ok := active[0].(*scene.Text)
	if !ok {
		return false, nil
	}

	if strings.TrimFunc(t.Text(), unicode.IsSpace) != "" {
		if t.IsEditing() {
			t.DeleteBackward()
		}
		return false, nil
	}

	if t.IsEditing() {
		if err := t.EndEdit(); err != nil {
			return false, NewOperationError("backspace", t.ID(), err).WithContext("end edit")
		}
	}
	if err := e.canvas.Remove(ctx, t.ID()); err != nil {
		return false, NewOperationError("backspace", t.ID(), err)
	}
	e.canvas.DiscardActive()
	e.canvas.RequestRender()
	return true, nil
}

// Undo steps back one history entry. It reports whether a restore started.
func (e *Editor) Undo() (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	ok, err := e.history.Undo()
	if err != nil {
		return false, NewOperationError("undo", "", err)
	}
	return ok, nil
}

// Redo steps forward one history entry. It reports whether a restore
// started.
func (e *Editor) Redo() (bool, error) {
	if e.closed {
		return false, ErrClosed
	}
	ok, err := e.history.Redo()
	if err != nil {
		return false, NewOperationError("redo", "", err)
	}
	return ok, nil
}

// Do runs a bound action.
func (e *Editor) Do(ctx context.Context, action keymap.Action) error {
	var err error
	switch action {
	case keymap.ActionUndo:
		_, err = e.Undo()
	case keymap.ActionRedo:
		_, err = e.Redo()
	case keymap.ActionDeleteSelection:
		_, err = e.DeleteSelection(ctx)
	case keymap.ActionBackspace:
		_, err = e.Backspace(ctx)
	case keymap.ActionEndEdit:
		if t, ok := e.Editing(); ok {
			err = e.EndEdit(t.ID())
		}
	case keymap.ActionAddCircle:
		_, err = e.AddCircle(ctx)
	case keymap.ActionAddText:
		_, err = e.AddText(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	return err
}

// HandleKey dispatches a key press. A bound chord runs its action; an
// unbound character is typed into the text being edited. It returns the
// action run, or "" if the key only typed or did nothing.
func (e *Editor) HandleKey(ctx context.Context, ev *tcell.EventKey) (keymap.Action, error) {
	if e.closed {
		return "", ErrClosed
	}
	if action, ok := e.keys.Lookup(ev); ok {
		e.log.Debug("key %s -> %s", keymap.FromEvent(ev), action)
		return action, e.Do(ctx, action)
	}

	if ev.Key() == tcell.KeyRune && ev.Modifiers()&(tcell.ModCtrl|tcell.ModAlt|tcell.ModMeta) == 0 {
		if t, ok := e.Editing(); ok {
			t.Insert(string(ev.Rune()))
		}
	}
	return "", nil
}

func (e *Editor) addAndSelect(ctx context.Context, obj scene.Object) error {
	if err := e.canvas.Add(ctx, obj); err != nil {
		return err
	}
	if err := e.canvas.SetActive(obj.ID()); err != nil {
		return err
	}
	e.canvas.RequestRender()
	return nil
}

// nextID returns prefix-N for the next N not already on the canvas.
func (e *Editor) nextID(prefix string, counter *int) string {
	for {
		*counter++
		id := fmt.Sprintf("%s-%d", prefix, *counter)
		if _, taken := e.canvas.Get(id); !taken {
			return id
		}
	}
}

func (e *Editor) text(op, id string) (*scene.Text, error) {
	if e.closed {
		return nil, ErrClosed
	}
	obj, ok := e.canvas.Get(id)
	if !ok {
		return nil, NewOperationError(op, id, scene.ErrObjectNotFound)
	}
	t, ok := obj.(*scene.Text)
	if !ok {
		return nil, NewOperationError(op, id, ErrNotText)
	}
	return t, nil
}
