package session

import (
	"testing"

	"github.com/vtcore/vtcore"
)

func newTestSession() *Session {
	return &Session{
		Term:   vtcore.New(),
		events: make(chan Event, 64),
	}
}

func drainEvents(s *Session) []Event {
	var out []Event
	for {
		select {
		case e := <-s.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func countWakeups(events []Event) int {
	n := 0
	for _, e := range events {
		if e.Kind == EventWakeup {
			n++
		}
	}
	return n
}

func TestFeedPlainContentWakesUpImmediately(t *testing.T) {
	s := newTestSession()
	s.feed([]byte("hello"))

	events := drainEvents(s)
	if countWakeups(events) != 1 {
		t.Fatalf("want exactly one wakeup, got %d (%+v)", countWakeups(events), events)
	}
	if got := s.Term.LineContent(0); got != "hello" {
		t.Fatalf("Term content = %q, want %q", got, "hello")
	}
}

func TestFeedSyncWindowSuppressesIntermediateWakeups(t *testing.T) {
	s := newTestSession()

	// Everything between the markers is one self-contained feed call;
	// only one wakeup should result for the whole bracketed batch, and
	// the content must still land in the terminal once the window closes.
	s.feed([]byte("\x1bP=1s\x1b\\hello\x1bP=2s\x1b\\"))

	events := drainEvents(s)
	if countWakeups(events) != 1 {
		t.Fatalf("want exactly one wakeup for the whole sync window, got %d (%+v)", countWakeups(events), events)
	}
	if got := s.Term.LineContent(0); got != "hello" {
		t.Fatalf("Term content = %q, want %q", got, "hello")
	}
}

func TestFeedSyncWindowHidesContentUntilClose(t *testing.T) {
	s := newTestSession()

	s.feed([]byte("\x1bP=1s\x1b\\partial"))
	if got := s.Term.LineContent(0); got != "" {
		t.Fatalf("terminal observed content before sync window closed: %q", got)
	}
	if countWakeups(drainEvents(s)) != 0 {
		t.Fatalf("expected no wakeup while sync window is open")
	}

	s.feed([]byte("\x1bP=2s\x1b\\"))
	if got := s.Term.LineContent(0); got != "partial" {
		t.Fatalf("Term content = %q, want %q", got, "partial")
	}
	if countWakeups(drainEvents(s)) != 1 {
		t.Fatalf("expected exactly one wakeup once the sync window closes")
	}
}

func TestFeedMarkerSplitAcrossReads(t *testing.T) {
	s := newTestSession()

	begin := "\x1bP=1s\x1b\\"
	for i := range begin {
		s.feed([]byte{begin[i]})
	}
	s.feed([]byte("x"))
	if got := s.Term.LineContent(0); got != "" {
		t.Fatalf("a begin marker split byte-by-byte across feed calls should still open the window, got %q", got)
	}

	end := "\x1bP=2s\x1b\\"
	for i := range end {
		s.feed([]byte{end[i]})
	}
	if got := s.Term.LineContent(0); got != "x" {
		t.Fatalf("Term content = %q, want %q", got, "x")
	}
}

func TestFeedMarkerLookalikeIsNotConsumed(t *testing.T) {
	s := newTestSession()

	// Shares a prefix with the begin marker but never completes it;
	// must be written through as ordinary bytes, not swallowed.
	s.feed([]byte("\x1bP=9s\x1b\\z"))

	if countWakeups(drainEvents(s)) != 1 {
		t.Fatalf("expected a normal wakeup for non-matching DCS-shaped content")
	}
}

func TestEndSyncReportsWhetherAnythingWasBuffered(t *testing.T) {
	s := newTestSession()
	s.beginSync()
	if s.endSync() {
		t.Fatalf("endSync on an empty window should report nothing applied")
	}

	s.beginSync()
	s.syncBuf = []byte("y")
	if !s.endSync() {
		t.Fatalf("endSync with buffered bytes should report something applied")
	}
}

func TestPartialMarkerSuffix(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"hello", 0},
		{"hello\x1b", 1},
		{"hello\x1bP", 2},
		{"hello\x1bP=", 3},
		{"hello\x1bP=1", 4},
		{"hello\x1bP=1s", 5},
		{"hello\x1bP=1s\x1b", 6},
		// A complete marker is consumed by the caller's scan loop
		// before partialMarkerSuffix ever sees it as a suffix check
		// target, so it is not exercised here.
	}
	for _, c := range cases {
		if got := partialMarkerSuffix([]byte(c.in)); got != c.want {
			t.Errorf("partialMarkerSuffix(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
