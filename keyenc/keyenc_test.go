package keyenc

import "testing"

func TestLegacyArrowKeysRespectAppCursorKeys(t *testing.T) {
	cases := []struct {
		key  Key
		app  bool
		want string
	}{
		{KeyArrowUp, false, "\x1b[A"},
		{KeyArrowUp, true, "\x1bOA"},
		{KeyArrowDown, false, "\x1b[B"},
		{KeyArrowDown, true, "\x1bOB"},
		{KeyArrowLeft, true, "\x1bOD"},
		{KeyArrowRight, true, "\x1bOC"},
	}
	for _, c := range cases {
		got := Encode(Event{Key: c.key, AppCursorKeys: c.app}, 0)
		if string(got) != c.want {
			t.Errorf("Encode(%v, app=%v) = %q, want %q", c.key, c.app, got, c.want)
		}
	}
}

func TestLegacyFunctionKeys(t *testing.T) {
	cases := []struct {
		key  Key
		want string
	}{
		{KeyF1, "\x1bOP"},
		{KeyF5, "\x1b[15~"},
		{KeyF12, "\x1b[24~"},
		{KeyHome, "\x1b[H"},
		{KeyEnd, "\x1b[F"},
		{KeyPageUp, "\x1b[5~"},
		{KeyDelete, "\x1b[3~"},
	}
	for _, c := range cases {
		got := Encode(Event{Key: c.key}, 0)
		if string(got) != c.want {
			t.Errorf("Encode(%v) = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestLegacyControlLetter(t *testing.T) {
	got := Encode(Event{Key: KeyChar, Char: 'c', Modifiers: ModControl}, 0)
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("Ctrl+C = %v, want [3]", got)
	}
}

func TestLegacyBackspaceAndEnter(t *testing.T) {
	if got := Encode(Event{Key: KeyBackspace}, 0); string(got) != "\x7f" {
		t.Errorf("Backspace = %q, want DEL", got)
	}
	if got := Encode(Event{Key: KeyEnter}, 0); string(got) != "\r" {
		t.Errorf("Enter = %q, want CR", got)
	}
}

func TestLegacyAltPrefixesEscape(t *testing.T) {
	got := Encode(Event{Key: KeyChar, Char: 'a', Modifiers: ModAlt}, 0)
	if string(got) != "\x1ba" {
		t.Errorf("Alt+a = %q, want ESC a", got)
	}
}

func TestLegacyRelease(t *testing.T) {
	// Legacy encodings carry no event type; a release without a kitty
	// mode produces nothing to send.
	got := Encode(Event{Key: KeyChar, Char: 'a', Type: EventRelease}, 0)
	if got != nil {
		t.Errorf("legacy release = %v, want nil", got)
	}
}

func TestKittyPlainLetterNoModifiers(t *testing.T) {
	got := Encode(Event{Key: KeyChar, Char: 'a'}, ModeDisambiguate)
	if string(got) != "\x1b[97u" {
		t.Errorf("kitty 'a' = %q, want \\x1b[97u", got)
	}
}

func TestKittyModifiersAreEncodedAsOnePlusBits(t *testing.T) {
	got := Encode(Event{Key: KeyChar, Char: 'a', Modifiers: ModControl}, ModeDisambiguate)
	if string(got) != "\x1b[97;5u" {
		t.Errorf("kitty Ctrl+a = %q, want \\x1b[97;5u (mod param = 1+4)", got)
	}
}

func TestKittyEventTypeReportedOnlyForRepeatAndRelease(t *testing.T) {
	mode := ModeDisambiguate | ModeReportEventTypes

	press := Encode(Event{Key: KeyChar, Char: 'a', Type: EventPress}, mode)
	if string(press) != "\x1b[97u" {
		t.Errorf("kitty press = %q, want no event-type suffix", press)
	}

	release := Encode(Event{Key: KeyChar, Char: 'a', Type: EventRelease}, mode)
	if string(release) != "\x1b[97;1:3u" {
		t.Errorf("kitty release = %q, want \\x1b[97;1:3u", release)
	}

	repeat := Encode(Event{Key: KeyChar, Char: 'a', Type: EventRepeat}, mode)
	if string(repeat) != "\x1b[97;1:2u" {
		t.Errorf("kitty repeat = %q, want \\x1b[97;1:2u", repeat)
	}
}

func TestKittyNamedKeysUseProtocolNumbers(t *testing.T) {
	cases := []struct {
		key  Key
		want string
	}{
		{KeyArrowUp, "\x1b[57419u"},
		{KeyHome, "\x1b[57423u"},
		{KeyEscape, "\x1b[27u"},
		{KeyF3, "\x1b[13~"}, // kitty diverges from legacy SS3 F3 here
		{KeyNumpad5, "\x1b[57404u"},
	}
	for _, c := range cases {
		got := Encode(Event{Key: c.key}, ModeDisambiguate)
		if string(got) != c.want {
			t.Errorf("kitty %v = %q, want %q", c.key, got, c.want)
		}
	}
}

func TestKittyAssociatedTextOnlyWhenModeAndNonEmpty(t *testing.T) {
	mode := ModeDisambiguate | ModeReportAssociatedText
	got := Encode(Event{Key: KeyChar, Char: 'e', AssociatedText: "é"}, mode)
	want := "\x1b[101;1;233u"
	if string(got) != want {
		t.Errorf("kitty associated text = %q, want %q", got, want)
	}
}

func TestModeZeroAlwaysUsesLegacyEncoding(t *testing.T) {
	got := Encode(Event{Key: KeyArrowUp}, 0)
	if string(got) != "\x1b[A" {
		t.Errorf("mode 0 arrow up = %q, want legacy \\x1b[A", got)
	}
}
