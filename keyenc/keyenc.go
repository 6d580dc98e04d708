// Package keyenc turns a logical key press into the exact bytes a
// terminal expects on its input stream: legacy xterm/VT sequences, or
// kitty-keyboard-protocol CSI-u sequences when the active keyboard
// mode asks for them (§6). Encode is a pure function of (key,
// modifiers, mode flags, event type) — it has no notion of a live
// terminal or pty and is safe to call from any input thread.
package keyenc

import (
	"fmt"
	"strings"
)

// Key identifies a logical key independent of any host windowing
// toolkit's keycodes.
type Key int

const (
	KeyNone Key = iota
	KeyChar     // see Event.Char

	KeyEnter
	KeyTab
	KeyEscape
	KeyBackspace
	KeySpace
	KeyDelete
	KeyInsert
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyArrowUp
	KeyArrowDown
	KeyArrowLeft
	KeyArrowRight

	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyF13
	KeyF14
	KeyF15
	KeyF16
	KeyF17
	KeyF18
	KeyF19
	KeyF20
	KeyF21
	KeyF22
	KeyF23
	KeyF24
	KeyF25

	KeyCapsLock
	KeyScrollLock
	KeyNumLock
	KeyPrintScreen
	KeyPause
	KeyContextMenu

	KeyLeftShift
	KeyLeftControl
	KeyLeftAlt
	KeyLeftSuper
	KeyRightShift
	KeyRightControl
	KeyRightAlt
	KeyRightSuper

	// Numpad keys report distinct kitty codes from their main-block
	// equivalents when the keyboard mode asks for disambiguation.
	KeyNumpad0
	KeyNumpad1
	KeyNumpad2
	KeyNumpad3
	KeyNumpad4
	KeyNumpad5
	KeyNumpad6
	KeyNumpad7
	KeyNumpad8
	KeyNumpad9
	KeyNumpadDecimal
	KeyNumpadDivide
	KeyNumpadMultiply
	KeyNumpadSubtract
	KeyNumpadAdd
	KeyNumpadEnter
	KeyNumpadEqual
)

// Modifiers is a bitset of held modifier keys, using the kitty
// protocol's own bit assignment so Encode(mods) maps directly onto
// the wire value (modifiers are sent as 1+bits, never bits alone).
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModControl
	ModSuper
	ModHyper
	ModMeta
	ModCapsLock
	ModNumLock
)

// encodeParam is the kitty modifier parameter: the modifier bits plus
// one (1 when there are no modifiers). Callers omit it from the
// sequence when there are no modifiers and no other reason to emit one.
func (m Modifiers) encodeParam() int { return int(m) + 1 }

func (m Modifiers) any() bool { return m != 0 }

// EventType distinguishes press/repeat/release, reported only when
// the keyboard mode's ReportEventTypes flag is set.
type EventType int

const (
	EventPress EventType = iota
	EventRepeat
	EventRelease
)

// Kitty keyboard protocol mode flags (CSI > flags u / CSI = flags u),
// numbered per the protocol itself — these are the same numbers
// Terminal.KeyboardMode returns.
const (
	ModeDisambiguate            uint = 1
	ModeReportEventTypes        uint = 2
	ModeReportAlternateKeys     uint = 4
	ModeReportAllKeysAsEscapes  uint = 8
	ModeReportAssociatedText    uint = 16
)

// Event describes one physical key transition to encode.
type Event struct {
	Key  Key
	Char rune // valid when Key == KeyChar; the unmodified textual key

	// AlternateChar is the character the key would have produced
	// without Shift (only used when Mode has ReportAlternateKeys and
	// differs from Char).
	AlternateChar rune

	Type      EventType
	Modifiers Modifiers

	// AssociatedText is the text the key actually produced after all
	// modifiers and layout (only sent when Mode has
	// ReportAssociatedText and this is non-empty).
	AssociatedText string

	// AppCursorKeys mirrors DECCKM (mode 1): arrow/Home/End keys use
	// SS3 (ESC O) instead of CSI when true and no kitty mode applies.
	AppCursorKeys bool
	// AppKeypad mirrors DECNKM / mode 66. Legacy encoding does not read
	// it: there, KeyNumpadEnter sends CR and the other numpad keys
	// produce no bytes.
	AppKeypad bool
}

// Encode returns the bytes to send to the pty for ev, given the
// terminal's currently active kitty-keyboard mode flags (0 means no
// mode pushed, so legacy xterm/VT encoding is used throughout).
func Encode(ev Event, mode uint) []byte {
	kittySeq := mode&(ModeReportAllKeysAsEscapes|ModeDisambiguate|ModeReportEventTypes) != 0
	kittyEncodeAll := mode&ModeReportAllKeysAsEscapes != 0
	reportEventType := mode&ModeReportEventTypes != 0 && (ev.Type == EventRepeat || ev.Type == EventRelease)
	reportAltKeys := mode&ModeReportAlternateKeys != 0
	reportAssocText := mode&ModeReportAssociatedText != 0 && ev.Type != EventRelease && ev.AssociatedText != ""

	if kittySeq {
		if seq, ok := encodeKitty(ev, reportEventType, reportAltKeys, reportAssocText); ok {
			return seq
		}
		if !kittyEncodeAll {
			// Fall through to legacy encoding for keys the kitty table
			// doesn't claim (e.g. F1, F2 and F4-F12, which keep their
			// legacy sequences when the mode doesn't ask for full encoding).
		} else if ev.Key == KeyChar || ev.AssociatedText != "" {
			return encodeKittyKeyBody("0", 'u', ev, reportEventType, reportAssocText)
		}
	}

	if ev.Type == EventRelease {
		// Legacy encodings have no press/release distinction; a
		// release with no kitty mode active produces nothing.
		return nil
	}

	return encodeLegacy(ev)
}

// encodeKitty attempts the kitty CSI-u (or, for the few keys kitty
// keeps a legacy tilde terminator for, CSI-~) encoding for ev. ok is
// false when the key has no kitty-table entry and the caller should
// either fall back to legacy encoding or (in ReportAllKeysAsEscapes
// mode) use the textual fallback.
func encodeKitty(ev Event, reportEventType, reportAltKeys, reportAssocText bool) ([]byte, bool) {
	base, terminator, ok := kittyKeyBase(ev.Key)
	if !ok {
		if ev.Key == KeyChar && ev.Char != 0 {
			base = fmt.Sprintf("%d", ev.Char)
			terminator = 'u'
			ok = true
		}
	}
	if !ok {
		return nil, false
	}

	if reportAltKeys && ev.AlternateChar != 0 && rune(mustAtoi(base)) != ev.AlternateChar {
		base = fmt.Sprintf("%s:%d", base, ev.AlternateChar)
	}

	return encodeKittyKeyBody(base, terminator, ev, reportEventType, reportAssocText), true
}

func encodeKittyKeyBody(base string, terminator byte, ev Event, reportEventType, reportAssocText bool) []byte {
	var b strings.Builder
	b.WriteString("\x1b[")
	b.WriteString(base)

	hasAssoc := reportAssocText && ev.AssociatedText != ""
	if reportEventType || ev.Modifiers.any() || hasAssoc {
		fmt.Fprintf(&b, ";%d", ev.Modifiers.encodeParam())
	}
	if reportEventType {
		b.WriteByte(':')
		switch ev.Type {
		case EventRepeat:
			b.WriteByte('2')
		case EventRelease:
			b.WriteByte('3')
		default:
			b.WriteByte('1')
		}
	}
	if hasAssoc {
		first := true
		for _, r := range ev.AssociatedText {
			if first {
				fmt.Fprintf(&b, ";%d", r)
				first = false
			} else {
				fmt.Fprintf(&b, ":%d", r)
			}
		}
	}
	b.WriteByte(terminator)
	return []byte(b.String())
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// kittyKeyBase returns the numeric base and terminator ('u' for the
// kitty-specific functional-key numbers, a classic letter/tilde for
// keys kitty keeps the legacy terminator for) for named and numpad
// keys. Ported from the reference encoder (build_key_sequence).
func kittyKeyBase(k Key) (base string, terminator byte, ok bool) {
	switch k {
	case KeyF3:
		return "13", '~', true // kitty diverges from legacy SS3 F3 here
	case KeyF13:
		return "57376", 'u', true
	case KeyF14:
		return "57377", 'u', true
	case KeyF15:
		return "57378", 'u', true
	case KeyF16:
		return "57379", 'u', true
	case KeyF17:
		return "57380", 'u', true
	case KeyF18:
		return "57381", 'u', true
	case KeyF19:
		return "57382", 'u', true
	case KeyF20:
		return "57383", 'u', true
	case KeyF21:
		return "57384", 'u', true
	case KeyF22:
		return "57385", 'u', true
	case KeyF23:
		return "57386", 'u', true
	case KeyF24:
		return "57387", 'u', true
	case KeyF25:
		return "57388", 'u', true
	case KeyScrollLock:
		return "57359", 'u', true
	case KeyPrintScreen:
		return "57361", 'u', true
	case KeyPause:
		return "57362", 'u', true
	case KeyContextMenu:
		return "57363", 'u', true
	case KeyCapsLock:
		return "57358", 'u', true
	case KeyNumLock:
		return "57360", 'u', true
	case KeyLeftShift:
		return "57441", 'u', true
	case KeyLeftControl:
		return "57442", 'u', true
	case KeyLeftAlt:
		return "57443", 'u', true
	case KeyLeftSuper:
		return "57444", 'u', true
	case KeyRightShift:
		return "57447", 'u', true
	case KeyRightControl:
		return "57448", 'u', true
	case KeyRightAlt:
		return "57449", 'u', true
	case KeyRightSuper:
		return "57450", 'u', true
	case KeyTab:
		return "9", 'u', true
	case KeyEnter:
		return "13", 'u', true
	case KeyEscape:
		return "27", 'u', true
	case KeySpace:
		return "32", 'u', true
	case KeyBackspace:
		return "127", 'u', true
	case KeyNumpad0:
		return "57399", 'u', true
	case KeyNumpad1:
		return "57400", 'u', true
	case KeyNumpad2:
		return "57401", 'u', true
	case KeyNumpad3:
		return "57402", 'u', true
	case KeyNumpad4:
		return "57403", 'u', true
	case KeyNumpad5:
		return "57404", 'u', true
	case KeyNumpad6:
		return "57405", 'u', true
	case KeyNumpad7:
		return "57406", 'u', true
	case KeyNumpad8:
		return "57407", 'u', true
	case KeyNumpad9:
		return "57408", 'u', true
	case KeyNumpadDecimal:
		return "57409", 'u', true
	case KeyNumpadDivide:
		return "57410", 'u', true
	case KeyNumpadMultiply:
		return "57411", 'u', true
	case KeyNumpadSubtract:
		return "57412", 'u', true
	case KeyNumpadAdd:
		return "57413", 'u', true
	case KeyNumpadEnter:
		return "57414", 'u', true
	case KeyNumpadEqual:
		return "57415", 'u', true
	case KeyArrowLeft:
		return "57417", 'u', true
	case KeyArrowRight:
		return "57418", 'u', true
	case KeyArrowUp:
		return "57419", 'u', true
	case KeyArrowDown:
		return "57420", 'u', true
	case KeyPageUp:
		return "57421", 'u', true
	case KeyPageDown:
		return "57422", 'u', true
	case KeyHome:
		return "57423", 'u', true
	case KeyEnd:
		return "57424", 'u', true
	case KeyInsert:
		return "57425", 'u', true
	case KeyDelete:
		return "57426", 'u', true
	default:
		return "", 0, false
	}
}

// encodeLegacy returns the classic xterm/VT sequence for ev, honoring
// DECCKM (AppCursorKeys) for the cursor-motion cluster and falling
// back to plain UTF-8 bytes for textual keys.
func encodeLegacy(ev Event) []byte {
	if seq, ok := legacyAppOrNormal(ev.Key, ev.AppCursorKeys); ok {
		return seq
	}

	if seq, ok := legacyTilde(ev.Key); ok {
		return seq
	}

	if seq, ok := legacyFunction(ev.Key); ok {
		return seq
	}

	switch ev.Key {
	case KeyEnter, KeyNumpadEnter:
		return []byte{'\r'}
	case KeyTab:
		if ev.Modifiers&ModShift != 0 {
			return []byte("\x1b[Z")
		}
		return []byte{'\t'}
	case KeyEscape:
		return []byte{0x1b}
	case KeyBackspace:
		return []byte{0x7f}
	case KeySpace:
		if ev.Modifiers&ModControl != 0 {
			return []byte{0}
		}
		return []byte{' '}
	case KeyChar:
		return legacyChar(ev.Char, ev.Modifiers)
	}

	return nil
}

func legacyAppOrNormal(k Key, appCursorKeys bool) ([]byte, bool) {
	var letter byte
	switch k {
	case KeyArrowUp:
		letter = 'A'
	case KeyArrowDown:
		letter = 'B'
	case KeyArrowRight:
		letter = 'C'
	case KeyArrowLeft:
		letter = 'D'
	case KeyHome:
		letter = 'H'
	case KeyEnd:
		letter = 'F'
	default:
		return nil, false
	}
	if appCursorKeys {
		return []byte{0x1b, 'O', letter}, true
	}
	return []byte{0x1b, '[', letter}, true
}

func legacyTilde(k Key) ([]byte, bool) {
	var n string
	switch k {
	case KeyInsert:
		n = "2"
	case KeyDelete:
		n = "3"
	case KeyPageUp:
		n = "5"
	case KeyPageDown:
		n = "6"
	case KeyF5:
		n = "15"
	case KeyF6:
		n = "17"
	case KeyF7:
		n = "18"
	case KeyF8:
		n = "19"
	case KeyF9:
		n = "20"
	case KeyF10:
		n = "21"
	case KeyF11:
		n = "23"
	case KeyF12:
		n = "24"
	case KeyF13:
		n = "25"
	case KeyF14:
		n = "26"
	case KeyF15:
		n = "28"
	case KeyF16:
		n = "29"
	case KeyF17:
		n = "31"
	case KeyF18:
		n = "32"
	case KeyF19:
		n = "33"
	case KeyF20:
		n = "34"
	default:
		return nil, false
	}
	return []byte("\x1b[" + n + "~"), true
}

func legacyFunction(k Key) ([]byte, bool) {
	var letter byte
	switch k {
	case KeyF1:
		letter = 'P'
	case KeyF2:
		letter = 'Q'
	case KeyF3:
		letter = 'R'
	case KeyF4:
		letter = 'S'
	default:
		return nil, false
	}
	return []byte{0x1b, 'O', letter}, true
}

// legacyChar encodes a plain character key: Ctrl+letter collapses to
// its C0 control code, everything else passes through as UTF-8. Alt
// prefixes the result with ESC, matching xterm's meta-sends-escape
// behavior.
func legacyChar(r rune, mods Modifiers) []byte {
	if mods&ModControl != 0 {
		upper := r
		if upper >= 'a' && upper <= 'z' {
			upper -= 'a' - 'A'
		}
		if upper >= '@' && upper <= '_' {
			return []byte{byte(upper - '@')}
		}
		if upper == '?' {
			return []byte{0x7f}
		}
	}

	buf := make([]byte, 4)
	n := encodeRune(buf, r)
	out := buf[:n]

	if mods&ModAlt != 0 {
		return append([]byte{0x1b}, out...)
	}
	return out
}

// encodeRune writes r as UTF-8 into buf, returning the byte count.
func encodeRune(buf []byte, r rune) int {
	switch {
	case r < 0x80:
		buf[0] = byte(r)
		return 1
	case r < 0x800:
		buf[0] = byte(0xC0 | (r >> 6))
		buf[1] = byte(0x80 | (r & 0x3F))
		return 2
	case r < 0x10000:
		buf[0] = byte(0xE0 | (r >> 12))
		buf[1] = byte(0x80 | ((r >> 6) & 0x3F))
		buf[2] = byte(0x80 | (r & 0x3F))
		return 3
	default:
		buf[0] = byte(0xF0 | (r >> 18))
		buf[1] = byte(0x80 | ((r >> 12) & 0x3F))
		buf[2] = byte(0x80 | ((r >> 6) & 0x3F))
		buf[3] = byte(0x80 | (r & 0x3F))
		return 4
	}
}
