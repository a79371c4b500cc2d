package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const redoBranchScript = `
name: redo branch
steps:
  - action: addCircle
  - action: addCircle
    expect:
      length: 3
      ids: [circle-1, circle-2]
  - action: key
    keys: ctrl+z
    expect:
      objects: 1
      canRedo: true
  - action: addCircle
expect:
  length: 3
  index: 2
  canUndo: true
  canRedo: false
  ids: [circle-1, circle-3]
  query:
    objects.#: "2"
    objects.1.fill: lightpink
`

func TestReplay_RedoBranch(t *testing.T) {
	s, err := ParseScript([]byte(redoBranchScript))
	require.NoError(t, err)
	require.Equal(t, "redo branch", s.Name)
	require.Len(t, s.Steps, 4)

	e := newTestEditor(t)
	require.NoError(t, e.Replay(context.Background(), s))
}

func TestReplay_TextAndBarcode(t *testing.T) {
	const script = `
steps:
  - action: addText
  - action: edit
    id: text-1
    text: Hello
    expect:
      length: 3
      query:
        objects.0.text: Hello
  - action: addBarcode
    barcode:
      type: ean-13
      value: "590123412345"
  - action: addBarcode
    mode: replace
    barcode:
      type: CODE128
      value: HELLO-12345
    expect:
      objects: 2
      query:
        objects.1.barcode.type: CODE128
        objects.1.barcode.options.barHeight: "80"
  - action: undo
    expect:
      query:
        objects.1.barcode.type: EAN13
  - action: redo
  - action: drawPath
    points:
      - {x: 0, y: 0}
      - {x: 10, y: 20}
  - action: select
    ids: [text-1]
  - action: setText
    id: text-1
    text: "  "
  - action: backspace
expect:
  objects: 2
  query:
    objects.0.type: image
    objects.1.type: path
`
	s, err := ParseScript([]byte(script))
	require.NoError(t, err)

	e := newTestEditor(t)
	require.NoError(t, e.Replay(context.Background(), s))
	require.Equal(t, 0, e.Loop().Pending())
}

func TestReplay_ShiftedKeyTypesUppercase(t *testing.T) {
	s, err := ParseScript([]byte(`
steps:
  - action: addText
  - action: setText
    id: text-1
    text: ""
  - action: key
    keys: Z
  - action: key
    keys: shift+a
  - action: endEdit
    id: text-1
expect:
  query:
    objects.0.text: ZA
`))
	require.NoError(t, err)

	e := newTestEditor(t)
	require.NoError(t, e.Replay(context.Background(), s))
}

func TestReplay_FailedExpectation(t *testing.T) {
	s, err := ParseScript([]byte(`
steps:
  - action: addCircle
  - action: undo
    expect:
      objects: 1
`))
	require.NoError(t, err)

	e := newTestEditor(t)
	err = e.Replay(context.Background(), s)
	require.ErrorIs(t, err, ErrExpectation)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, 1, serr.Index)
	require.Equal(t, "undo", serr.Action)
	require.Contains(t, err.Error(), "step 2 (undo)")
	require.Contains(t, err.Error(), "objects = 0, want 1")
}

func TestReplay_StepError(t *testing.T) {
	s, err := ParseScript([]byte(`
steps:
  - action: addBarcode
    barcode: {type: UPC, value: "12"}
`))
	require.NoError(t, err)

	e := newTestEditor(t)
	err = e.Replay(context.Background(), s)

	var serr *StepError
	require.ErrorAs(t, err, &serr)
	require.Equal(t, 0, serr.Index)
	require.Contains(t, err.Error(), "UPC-A must be 11 or 12 digits")
}

func TestReplay_Cancelled(t *testing.T) {
	s, err := ParseScript([]byte("steps:\n  - action: addCircle\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newTestEditor(t)
	require.ErrorIs(t, e.Replay(ctx, s), context.Canceled)
	require.Equal(t, 0, e.Canvas().Len())
}

func TestParseScript_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "steps:\n  - action: addCircle\n    colour: red\n",
		"unknown action": "steps:\n  - action: explode\n",
		"bad yaml":       "steps: [\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseScript([]byte(src))
			require.Error(t, err)
		})
	}

	_, err := ParseScript([]byte("steps:\n  - action: explode\n"))
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(redoBranchScript), 0o644))

	s, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, s.Steps, 4)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestDump(t *testing.T) {
	ctx := context.Background()
	e := newTestEditor(t)

	_, err := e.AddCircle(ctx)
	require.NoError(t, err)
	txt, err := e.AddText(ctx)
	require.NoError(t, err)
	_, err = e.AddBarcode(ctx, ean13(), "insert")
	require.NoError(t, err)

	d := e.Dump()
	require.Len(t, d.Objects, 3)
	require.Equal(t, "circle-1", d.Objects[0].ID)
	require.Equal(t, "Edit me", d.Objects[1].Text)
	require.NotNil(t, d.Objects[2].Barcode)
	require.Equal(t, 4, d.History.Length)
	require.Equal(t, "idle", d.History.State)
	require.Equal(t, []string{d.Objects[2].ID}, d.Selected)

	out, err := EncodeDump(d)
	require.NoError(t, err)

	var back Dump
	require.NoError(t, yaml.Unmarshal(out, &back))
	require.Equal(t, txt.ID(), back.Objects[1].ID)
	require.Equal(t, "EAN13", string(back.Objects[2].Barcode.Type))
	require.Contains(t, string(out), "  length: 4")
}
