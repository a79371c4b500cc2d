// Package keymap maps terminal key events to editor actions.
//
// Chords are written as modifier names joined by "+" with a key name last:
//
//	"ctrl+z"        - Ctrl+Z
//	"ctrl+shift+z"  - Ctrl+Shift+Z
//	"Z"             - Shift+Z
//	"delete", "esc" - named keys
//
// Events from tcell are normalized before lookup, so Ctrl+Z matches whether
// the terminal reports it as a control code or as a letter with ModCtrl.
//
// # Usage
//
//	km := keymap.Default()
//	km.Apply(cfg.Keys) // {"history.redo": ["ctrl+y"]}
//
//	if action, ok := km.Lookup(ev); ok {
//	    // run action
//	}
package keymap
