package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_Version(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "version"}, &out, &errOut)
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "canvasforge dev")
}

func TestRun_Replay(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "canvasforge.toml", "[history]\nlimit = 10\n")
	script := writeFile(t, dir, "s.yaml", `
steps:
  - action: addCircle
  - action: addText
  - action: undo
expect:
  objects: 1
`)

	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "--config", cfg, "replay", script}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "id: circle-1")
	require.Contains(t, out.String(), "limit: 10")
	require.NotContains(t, out.String(), "text-1")
}

func TestRun_ReplayFailure(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "s.yaml", "steps:\n  - action: undo\n    expect:\n      objects: 3\n")

	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "--config", filepath.Join(dir, "none.toml"), "replay", script}, &out, &errOut)
	require.Equal(t, 1, code)
	require.Contains(t, errOut.String(), "step 1 (undo)")
	require.Empty(t, out.String())
}

func TestRun_ReplayNoArgs(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "replay"}, &out, &errOut)
	require.Equal(t, 2, code)
}

func TestRun_Config(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "canvasforge.toml", "[history]\nlimit = 7\n")

	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "--config", cfg, "--log-level", "debug", "config"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "limit = 7")
	require.Contains(t, out.String(), "debug")
}

func TestRun_Keys(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"canvasforge", "--config", filepath.Join(t.TempDir(), "none.toml"), "keys"}, &out, &errOut)
	require.Equal(t, 0, code, errOut.String())
	require.Contains(t, out.String(), "history.undo")
}
