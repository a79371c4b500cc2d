package scene

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dshills/canvasforge/internal/barcode"
)

// FormatVersion is written into every serialized scene.
const FormatVersion = "1"

// document is the serialized scene.
type document struct {
	Version    string            `json:"version"`
	Background string            `json:"background,omitempty"`
	Objects    []json.RawMessage `json:"objects"`
}

// record is the serialized form of one object's built-in properties.
// Custom fields are appended after these by name.
type record struct {
	Type        string         `json:"type"`
	Left        float64        `json:"left"`
	Top         float64        `json:"top"`
	ScaleX      float64        `json:"scaleX"`
	ScaleY      float64        `json:"scaleY"`
	Angle       float64        `json:"angle"`
	Fill        string         `json:"fill,omitempty"`
	Stroke      string         `json:"stroke,omitempty"`
	StrokeWidth float64        `json:"strokeWidth,omitempty"`
	Radius      float64        `json:"radius,omitempty"`
	Text        *string        `json:"text,omitempty"`
	FontSize    float64        `json:"fontSize,omitempty"`
	Width       float64        `json:"width,omitempty"`
	Height      float64        `json:"height,omitempty"`
	Src         string         `json:"src,omitempty"`
	Barcode     *barcode.State `json:"barcode,omitempty"`
	Points      []Point        `json:"points,omitempty"`
}

// builtinKeys are the record keys; every other key of an object is custom.
var builtinKeys = map[string]bool{
	"type": true, "left": true, "top": true, "scaleX": true, "scaleY": true,
	"angle": true, "fill": true, "stroke": true, "strokeWidth": true,
	"radius": true, "text": true, "fontSize": true, "width": true,
	"height": true, "src": true, "barcode": true, "points": true,
}

// encodeObject serializes obj with the named custom fields appended.
// Fields the object does not carry are omitted.
func encodeObject(obj Object, extra []string) ([]byte, error) {
	raw, err := json.Marshal(obj.record())
	if err != nil {
		return nil, fmt.Errorf("encode %s %q: %w", obj.Type(), obj.ID(), err)
	}

	for _, name := range extra {
		if builtinKeys[name] {
			continue
		}
		v, ok := obj.Custom(name)
		if !ok {
			continue
		}
		raw, err = sjson.SetBytes(raw, escapeKey(name), v)
		if err != nil {
			return nil, fmt.Errorf("encode field %q of %q: %w", name, obj.ID(), err)
		}
	}
	return raw, nil
}

// decodeObject rebuilds an object from its serialized form. Objects without
// an identity get a fresh one.
func decodeObject(raw []byte) (Object, error) {
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	props := Props{
		Left:        rec.Left,
		Top:         rec.Top,
		ScaleX:      rec.ScaleX,
		ScaleY:      rec.ScaleY,
		Angle:       rec.Angle,
		Fill:        rec.Fill,
		Stroke:      rec.Stroke,
		StrokeWidth: rec.StrokeWidth,
	}

	parsed := gjson.ParseBytes(raw)
	id := parsed.Get("id").String()
	if id == "" {
		id = uuid.NewString()
	}

	var obj Object
	switch rec.Type {
	case TypeCircle:
		obj = NewCircle(id, props, rec.Radius)
	case TypeText:
		txt := ""
		if rec.Text != nil {
			txt = *rec.Text
		}
		obj = NewText(id, props, txt, rec.FontSize)
	case TypeImage:
		img := NewImage(id, props, barcode.State{})
		img.Width = rec.Width
		img.Height = rec.Height
		img.Src = rec.Src
		if rec.Barcode != nil {
			img.Barcode = *rec.Barcode
		}
		obj = img
	case TypePath:
		obj = NewPath(id, props, rec.Points)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownObjectType, rec.Type)
	}

	parsed.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if k != "id" && !builtinKeys[k] {
			obj.SetCustom(k, value.Value())
		}
		return true
	})

	return obj, nil
}

// escapeKey escapes sjson path metacharacters so name is set as a single
// top-level key.
func escapeKey(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		switch c := name[i]; c {
		case '.', '*', '?', '|', '#', '@', '\\', ':':
			out = append(out, '\\', c)
		default:
			out = append(out, c)
		}
	}
	return string(out)
}
