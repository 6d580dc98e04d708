package vtcore

import (
	"encoding/base64"
	"strings"
)

// SetUserVar sets an iTerm2-style user variable (OSC 1337 SetUserVar).
func (t *Terminal) SetUserVar(name, value string) {
	if t.middleware != nil && t.middleware.SetUserVar != nil {
		t.middleware.SetUserVar(name, value, t.setUserVarInternal)
		return
	}
	t.setUserVarInternal(name, value)
}

func (t *Terminal) setUserVarInternal(name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.userVars == nil {
		t.userVars = make(map[string]string)
	}
	t.userVars[name] = value
}

// GetUserVar returns the value of a user variable, or "" if it was never set.
func (t *Terminal) GetUserVar(name string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.userVars[name]
}

// GetUserVars returns a copy of all currently set user variables.
func (t *Terminal) GetUserVars() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]string, len(t.userVars))
	for k, v := range t.userVars {
		out[k] = v
	}
	return out
}

// ClearUserVars removes every user variable.
func (t *Terminal) ClearUserVars() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.userVars = make(map[string]string)
}

// interceptUserVarOSC scans data for OSC 1337 SetUserVar sequences, handles
// them directly, and returns the remaining bytes (with those sequences
// removed) for the ANSI decoder to process. go-ansicode's handler surface
// is driven by OSC numbers it already knows about; OSC 1337 isn't one of
// them, so it's peeled off here before the rest of the stream is decoded.
func (t *Terminal) interceptUserVarOSC(data []byte) []byte {
	if !containsOSC1337(data) {
		return data
	}

	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if data[i] == 0x1b && i+1 < len(data) && data[i+1] == ']' {
			if body, consumed, ok := scanOSC(data[i:]); ok && strings.HasPrefix(body, "1337;SetUserVar=") {
				t.handleOSC1337(strings.TrimPrefix(body, "1337;SetUserVar="))
				i += consumed
				continue
			}
		}
		out = append(out, data[i])
		i++
	}
	return out
}

func containsOSC1337(data []byte) bool {
	return strings.Contains(string(data), "\x1b]1337;SetUserVar=")
}

// scanOSC extracts the body of an OSC sequence starting at s[0]=='\x1b',
// s[1]==']', terminated by BEL (0x07) or ST ("\x1b\\"). It returns the body
// (without the introducer or terminator), the number of bytes consumed
// from s, and whether a terminator was found.
func scanOSC(s []byte) (body string, consumed int, ok bool) {
	for i := 2; i < len(s); i++ {
		if s[i] == 0x07 {
			return string(s[2:i]), i + 1, true
		}
		if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
			return string(s[2:i]), i + 2, true
		}
	}
	return "", 0, false
}

func (t *Terminal) handleOSC1337(assignment string) {
	eq := strings.IndexByte(assignment, '=')
	if eq < 0 {
		return
	}
	name := assignment[:eq]
	encoded := assignment[eq+1:]

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		// Malformed base64 is a protocol violation: ignore silently.
		return
	}

	t.SetUserVar(name, string(decoded))
}
