package scene

import (
	"sort"

	"github.com/dshills/canvasforge/internal/barcode"
)

// Object type discriminators.
const (
	TypeCircle = "circle"
	TypeText   = "i-text"
	TypeImage  = "image"
	TypePath   = "path"
)

// Props are the built-in render properties shared by every object.
type Props struct {
	Left        float64
	Top         float64
	ScaleX      float64
	ScaleY      float64
	Angle       float64
	Fill        string
	Stroke      string
	StrokeWidth float64
}

// DefaultProps returns props at the origin with unit scale.
func DefaultProps() Props {
	return Props{ScaleX: 1, ScaleY: 1}
}

// Object is a drawable scene object.
type Object interface {
	// ID returns the stable identity of the object.
	ID() string

	// Type returns the type discriminator.
	Type() string

	// Properties returns the mutable render properties.
	Properties() *Props

	// Custom returns a custom (non-render) field.
	Custom(name string) (any, bool)

	// SetCustom sets a custom field. Custom fields are serialized only when
	// whitelisted.
	SetCustom(name string, value any)

	record() record
	setID(id string)
}

// Base carries identity, render properties and custom fields.
type Base struct {
	id     string
	props  Props
	custom map[string]any
}

func newBase(id string, props Props) Base {
	return Base{id: id, props: props}
}

// ID returns the object's identity.
func (b *Base) ID() string { return b.id }

func (b *Base) setID(id string) { b.id = id }

// Properties returns the mutable render properties.
func (b *Base) Properties() *Props { return &b.props }

// Custom returns a custom field. The identity is exposed as "id".
func (b *Base) Custom(name string) (any, bool) {
	if name == "id" {
		return b.id, b.id != ""
	}
	v, ok := b.custom[name]
	return v, ok
}

// SetCustom sets a custom field.
func (b *Base) SetCustom(name string, value any) {
	if name == "id" {
		if s, ok := value.(string); ok {
			b.id = s
		}
		return
	}
	if b.custom == nil {
		b.custom = make(map[string]any)
	}
	b.custom[name] = value
}

func (b *Base) baseRecord(typ string) record {
	return record{
		Type:        typ,
		Left:        b.props.Left,
		Top:         b.props.Top,
		ScaleX:      b.props.ScaleX,
		ScaleY:      b.props.ScaleY,
		Angle:       b.props.Angle,
		Fill:        b.props.Fill,
		Stroke:      b.props.Stroke,
		StrokeWidth: b.props.StrokeWidth,
	}
}

// Circle is a filled circle.
type Circle struct {
	Base
	Radius float64
}

// NewCircle creates a circle.
func NewCircle(id string, props Props, radius float64) *Circle {
	return &Circle{Base: newBase(id, props), Radius: radius}
}

// Type returns TypeCircle.
func (c *Circle) Type() string { return TypeCircle }

func (c *Circle) record() record {
	r := c.baseRecord(TypeCircle)
	r.Radius = c.Radius
	return r
}

// Image is a bitmap carrying barcode metadata.
type Image struct {
	Base
	Width   float64
	Height  float64
	Src     string
	Barcode barcode.State
}

// NewImage creates a barcode image.
func NewImage(id string, props Props, state barcode.State) *Image {
	return &Image{Base: newBase(id, props), Barcode: state}
}

// Type returns TypeImage.
func (i *Image) Type() string { return TypeImage }

func (i *Image) record() record {
	r := i.baseRecord(TypeImage)
	r.Width = i.Width
	r.Height = i.Height
	r.Src = i.Src
	bc := i.Barcode
	r.Barcode = &bc
	return r
}

// Point is a freehand path vertex.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Path is a freehand stroke.
type Path struct {
	Base
	Points []Point
}

// NewPath creates a freehand path.
func NewPath(id string, props Props, points []Point) *Path {
	pts := make([]Point, len(points))
	copy(pts, points)
	return &Path{Base: newBase(id, props), Points: pts}
}

// Type returns TypePath.
func (p *Path) Type() string { return TypePath }

func (p *Path) record() record {
	r := p.baseRecord(TypePath)
	r.Points = p.Points
	return r
}

// Text is an editable text object.
//
// While an edit session is open, text changes produce no change
// notifications. Ending the session runs the edit-session hooks once.
type Text struct {
	Base
	FontSize float64

	text     string
	editing  bool
	hooks    map[uint64]func() error
	nextHook uint64
}

// NewText creates an editable text object.
func NewText(id string, props Props, text string, fontSize float64) *Text {
	return &Text{Base: newBase(id, props), text: text, FontSize: fontSize}
}

// Type returns TypeText.
func (t *Text) Type() string { return TypeText }

// Text returns the current content.
func (t *Text) Text() string { return t.text }

// SetText replaces the content.
func (t *Text) SetText(s string) { t.text = s }

// IsEditing reports whether an edit session is open.
func (t *Text) IsEditing() bool { return t.editing }

// BeginEdit opens an edit session. It is a no-op if one is already open.
func (t *Text) BeginEdit() {
	t.editing = true
}

// Insert appends s to the content, as typing at the end of the text would.
func (t *Text) Insert(s string) {
	t.text += s
}

// DeleteBackward removes the last character of the content.
func (t *Text) DeleteBackward() {
	if t.text == "" {
		return
	}
	r := []rune(t.text)
	t.text = string(r[:len(r)-1])
}

// EndEdit closes the edit session and runs the edit-session hooks in the
// order they were attached. It is a no-op when no session is open.
func (t *Text) EndEdit() error {
	if !t.editing {
		return nil
	}
	t.editing = false

	ids := make([]uint64, 0, len(t.hooks))
	for id := range t.hooks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if fn, ok := t.hooks[id]; ok {
			if err := fn(); err != nil {
				return err
			}
		}
	}
	return nil
}

// OnEditSessionEnd registers fn to run when an edit session ends.
// The returned function detaches it.
func (t *Text) OnEditSessionEnd(fn func() error) func() {
	if t.hooks == nil {
		t.hooks = make(map[uint64]func() error)
	}
	id := t.nextHook
	t.nextHook++
	t.hooks[id] = fn
	return func() { delete(t.hooks, id) }
}

// HookCount returns the number of attached edit-session hooks.
func (t *Text) HookCount() int {
	return len(t.hooks)
}

func (t *Text) record() record {
	r := t.baseRecord(TypeText)
	txt := t.text
	r.Text = &txt
	r.FontSize = t.FontSize
	return r
}
