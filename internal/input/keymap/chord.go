package keymap

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// Chord is a single normalized key press: a key, the character for
// tcell.KeyRune, and the active modifiers.
//
// Letters are stored lowercase; an uppercase letter becomes its lowercase
// form plus ModShift. Control codes are stored as Ctrl plus the letter.
type Chord struct {
	Key  tcell.Key
	Rune rune
	Mod  tcell.ModMask
}

// keyNames maps lowercase key names to tcell keys.
var keyNames = map[string]tcell.Key{
	"backspace": tcell.KeyBackspace2,
	"bs":        tcell.KeyBackspace2,
	"delete":    tcell.KeyDelete,
	"del":       tcell.KeyDelete,
	"escape":    tcell.KeyEscape,
	"esc":       tcell.KeyEscape,
	"enter":     tcell.KeyEnter,
	"return":    tcell.KeyEnter,
	"tab":       tcell.KeyTab,
	"insert":    tcell.KeyInsert,
	"home":      tcell.KeyHome,
	"end":       tcell.KeyEnd,
	"pgup":      tcell.KeyPgUp,
	"pageup":    tcell.KeyPgUp,
	"pgdn":      tcell.KeyPgDn,
	"pagedown":  tcell.KeyPgDn,
	"up":        tcell.KeyUp,
	"down":      tcell.KeyDown,
	"left":      tcell.KeyLeft,
	"right":     tcell.KeyRight,
}

// canonicalNames is the display name of each named key.
var canonicalNames = map[tcell.Key]string{
	tcell.KeyBackspace2: "Backspace",
	tcell.KeyDelete:     "Delete",
	tcell.KeyEscape:     "Escape",
	tcell.KeyEnter:      "Enter",
	tcell.KeyTab:        "Tab",
	tcell.KeyInsert:     "Insert",
	tcell.KeyHome:       "Home",
	tcell.KeyEnd:        "End",
	tcell.KeyPgUp:       "PgUp",
	tcell.KeyPgDn:       "PgDn",
	tcell.KeyUp:         "Up",
	tcell.KeyDown:       "Down",
	tcell.KeyLeft:       "Left",
	tcell.KeyRight:      "Right",
}

var modNames = map[string]tcell.ModMask{
	"ctrl":    tcell.ModCtrl,
	"control": tcell.ModCtrl,
	"shift":   tcell.ModShift,
	"alt":     tcell.ModAlt,
	"option":  tcell.ModAlt,
	"meta":    tcell.ModMeta,
	"cmd":     tcell.ModMeta,
}

// RuneChord returns the chord for a character key.
func RuneChord(r rune, mod tcell.ModMask) Chord {
	if unicode.IsUpper(r) {
		r = unicode.ToLower(r)
		mod |= tcell.ModShift
	}
	return Chord{Key: tcell.KeyRune, Rune: r, Mod: mod}
}

// FromEvent normalizes a tcell key event.
//
// tcell reports Ctrl+letter either as a control code (KeyCtrlZ) or as
// KeyRune with ModCtrl depending on the terminal; both normalize to the
// same chord. Backspace, Tab and Enter share their codes with Ctrl+H, Ctrl+I
// and Ctrl+M and are always read as the named key.
//
// tcell folds Ctrl+letter runes into control codes and lowercases the rune
// unless ModShift is set, so an uppercase rune with only ModCtrl arrives
// as Ctrl+Z, not Ctrl+Shift+Z.
func FromEvent(ev *tcell.EventKey) Chord {
	k, r, mod := ev.Key(), ev.Rune(), ev.Modifiers()

	switch {
	case k == tcell.KeyRune:
		return RuneChord(r, mod)
	case k == tcell.KeyBackspace:
		return Chord{Key: tcell.KeyBackspace2, Mod: mod}
	case k == tcell.KeyTab || k == tcell.KeyEnter:
		return Chord{Key: k, Mod: mod}
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return Chord{Key: tcell.KeyRune, Rune: rune('a' + int(k-tcell.KeyCtrlA)), Mod: mod | tcell.ModCtrl}
	}
	return Chord{Key: k, Mod: mod}
}

// ParseChord parses a chord such as "ctrl+z", "Ctrl+Shift+Z", "delete" or
// "f5". Names and modifiers are case-insensitive, except that a single
// uppercase letter implies Shift.
func ParseChord(s string) (Chord, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Chord{}, fmt.Errorf("%w: empty", ErrInvalidChord)
	}

	parts := strings.Split(s, "+")
	// "ctrl++" binds the plus key.
	if strings.HasSuffix(s, "++") {
		parts = append(parts[:len(parts)-2], "+")
	}

	var mod tcell.ModMask
	for _, p := range parts[:len(parts)-1] {
		m, ok := modNames[strings.ToLower(strings.TrimSpace(p))]
		if !ok {
			return Chord{}, fmt.Errorf("%w: unknown modifier %q in %q", ErrInvalidChord, p, s)
		}
		mod |= m
	}

	name := strings.TrimSpace(parts[len(parts)-1])
	if utf8.RuneCountInString(name) == 1 {
		r, _ := utf8.DecodeRuneInString(name)
		return RuneChord(r, mod), nil
	}

	lower := strings.ToLower(name)
	if lower == "space" {
		return Chord{Key: tcell.KeyRune, Rune: ' ', Mod: mod}, nil
	}
	if k, ok := keyNames[lower]; ok {
		return Chord{Key: k, Mod: mod}, nil
	}
	var n int
	if _, err := fmt.Sscanf(lower, "f%d", &n); err == nil && n >= 1 && n <= 12 {
		return Chord{Key: tcell.KeyF1 + tcell.Key(n-1), Mod: mod}, nil
	}
	return Chord{}, fmt.Errorf("%w: unknown key %q in %q", ErrInvalidChord, name, s)
}

// String returns the canonical form, for example "Ctrl+Shift+Z".
func (c Chord) String() string {
	var parts []string
	if c.Mod&tcell.ModCtrl != 0 {
		parts = append(parts, "Ctrl")
	}
	if c.Mod&tcell.ModAlt != 0 {
		parts = append(parts, "Alt")
	}
	if c.Mod&tcell.ModMeta != 0 {
		parts = append(parts, "Meta")
	}
	if c.Mod&tcell.ModShift != 0 {
		parts = append(parts, "Shift")
	}

	switch {
	case c.Key == tcell.KeyRune && c.Rune == ' ':
		parts = append(parts, "Space")
	case c.Key == tcell.KeyRune:
		parts = append(parts, string(unicode.ToUpper(c.Rune)))
	case c.Key >= tcell.KeyF1 && c.Key <= tcell.KeyF12:
		parts = append(parts, fmt.Sprintf("F%d", int(c.Key-tcell.KeyF1)+1))
	default:
		if name, ok := canonicalNames[c.Key]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, fmt.Sprintf("Key(%d)", c.Key))
		}
	}
	return strings.Join(parts, "+")
}

// Event returns a tcell key event that normalizes back to c. tcell drops a
// lone Shift on rune keys, so Shift+letter is sent as the uppercase rune.
func (c Chord) Event() *tcell.EventKey {
	if c.Key == tcell.KeyRune && c.Mod == tcell.ModShift && unicode.IsLower(c.Rune) {
		return tcell.NewEventKey(tcell.KeyRune, unicode.ToUpper(c.Rune), tcell.ModNone)
	}
	return tcell.NewEventKey(c.Key, c.Rune, c.Mod)
}
