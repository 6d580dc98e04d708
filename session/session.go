// Package session drives a single terminal's I/O event loop: it owns
// the pty, feeds bytes into a vtcore.Terminal under the read discipline
// the core expects, drains a write queue back to the child, and
// surfaces host-facing events (title changes, bell, clipboard, ...)
// on a channel.
package session

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	vtpty "github.com/vtcore/vtcore/pty"

	"github.com/vtcore/vtcore"
)

// readBufferSize bounds how much is accumulated from the pty before the
// loop is required to hand it to the parser, per iteration.
const readBufferSize = 1 << 20 // ~1 MiB

// maxLockedRead bounds how much of the accumulated buffer is handed to
// the terminal in one Write call, so a flood (cat of a large file)
// can't monopolize the terminal's internal lock across the whole
// accumulated buffer at once.
const maxLockedRead = 64 << 10 // ~64 KiB

// syncDeadline bounds how long a DCS synchronized-update window
// (mode 2026) may buffer before being force-flushed.
const syncDeadline = 150 * time.Millisecond

// EventKind identifies the kind of data carried by an Event.
type EventKind int

const (
	// EventWakeup means damage is available; render when able.
	EventWakeup EventKind = iota
	// EventTitle carries a new window title (OSC 0/1/2).
	EventTitle
	// EventResetTitle means the title should revert to its default.
	EventResetTitle
	// EventClipboardStore carries clipboard content to store (OSC 52).
	EventClipboardStore
	// EventClipboardLoad requests clipboard content; Respond must be
	// called with the content (or "" if unavailable).
	EventClipboardLoad
	// EventBell means BEL was received.
	EventBell
	// EventExited means the child process has been reaped.
	EventExited
	// EventHyperlinkOpen carries a URI the user activated.
	EventHyperlinkOpen
	// EventCursorBlinkingChange reports a change to cursor-blink mode.
	EventCursorBlinkingChange
	// EventMouseModeChange reports a change to mouse reporting mode.
	EventMouseModeChange
)

// Event is a single item on the Session's Events channel.
type Event struct {
	Kind      EventKind
	Title     string
	Clipboard byte
	Text      string
	URI       string
	Enabled   bool
	Respond   func(text string)
}

// Command is a single item a caller sends on the Session's Commands channel.
type Command struct {
	Kind     CommandKind
	Input    []byte
	Cols     int
	Rows     int
	PxWidth  int
	PxHeight int
}

// CommandKind identifies the kind of data carried by a Command.
type CommandKind int

const (
	// CommandInput is an opaque write destined for the child (paste,
	// key encodings, scroll reports).
	CommandInput CommandKind = iota
	// CommandResize updates the pty and terminal dimensions.
	CommandResize
	// CommandShutdown stops the loop, drops the pty (SIGHUP), and
	// discards pending writes.
	CommandShutdown
)

// Session owns one terminal's pty and event loop.
type Session struct {
	Term *vtcore.Terminal

	pty      *vtpty.Pty
	events   chan Event
	commands chan Command
	writes   chan []byte
	log      zerolog.Logger

	syncActive   bool
	syncDeadline time.Time
	syncBuf      []byte
	syncCarry    []byte
}

// Open spawns a shell behind a pty and wires a fresh Terminal to it.
func Open(opts vtpty.Options, termOpts ...vtcore.Option) (*Session, error) {
	p, err := vtpty.Open(opts)
	if err != nil {
		return nil, err
	}

	s := &Session{
		pty:      p,
		events:   make(chan Event, 64),
		commands: make(chan Command, 64),
		writes:   make(chan []byte, 64),
		log:      log.With().Str("component", "session").Logger(),
	}

	opts2 := append([]vtcore.Option{vtcore.WithResponse(s), vtcore.WithBell(bellProvider{s}), vtcore.WithTitle(titleProvider{s}), vtcore.WithClipboard(clipboardProvider{s})}, termOpts...)
	s.Term = vtcore.New(opts2...)

	return s, nil
}

// Events returns the channel of host-facing events emitted by the loop.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Commands returns the channel callers use to send input, resize, and
// shutdown requests to the loop.
func (s *Session) Commands() chan<- Command {
	return s.commands
}

// Write implements vtcore.ResponseProvider: response bytes generated by
// the terminal (DA, DSR, color query replies, ...) are queued back to
// the child the same way as user input.
func (s *Session) Write(p []byte) (int, error) {
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case s.writes <- cp:
	default:
		// Write queue is unbounded by design (§5); this default case
		// only protects against a closed channel during shutdown.
	}
	return len(p), nil
}

// Run drives the event loop until Shutdown is received or the child
// exits. It should be called from its own goroutine.
func (s *Session) Run() {
	defer close(s.events)

	backoff := time.Millisecond
	buf := make([]byte, maxLockedRead)
	pending := make([]byte, 0, readBufferSize)

	for {
		select {
		case cmd := <-s.commands:
			if !s.handleCommand(cmd) {
				return
			}
			continue
		default:
		}

		if s.syncActive && time.Now().After(s.syncDeadline) {
			if s.endSync() {
				s.emit(Event{Kind: EventWakeup})
			}
		}

		n, err := s.pty.Read(buf)
		if err != nil {
			if errors.Is(err, vtpty.ErrWouldBlock) {
				s.drainWrites()
				if len(pending) > 0 {
					s.feed(pending)
					pending = pending[:0]
				}
				time.Sleep(backoff)
				if backoff < 8*time.Millisecond {
					backoff *= 2
				}
				continue
			}
			s.log.Error().Err(err).Msg("fatal pty read error")
			s.emit(Event{Kind: EventExited})
			return
		}
		if n == 0 {
			s.log.Info().Msg("child hung up")
			s.emit(Event{Kind: EventExited})
			return
		}

		backoff = time.Millisecond
		pending = append(pending, buf[:n]...)

		if len(pending) >= readBufferSize {
			s.feed(pending)
			pending = pending[:0]
		}
	}
}

func (s *Session) drainWrites() {
	for {
		select {
		case chunk := <-s.writes:
			if _, err := s.pty.Write(chunk); err != nil && !errors.Is(err, vtpty.ErrWouldBlock) {
				s.log.Error().Err(err).Msg("fatal pty write error")
				s.emit(Event{Kind: EventExited})
				return
			}
		default:
			return
		}
	}
}

func (s *Session) handleCommand(cmd Command) bool {
	switch cmd.Kind {
	case CommandInput:
		s.Write(cmd.Input)
		return true
	case CommandResize:
		// The grid must know its new dimensions before the child
		// observes SIGWINCH, so terminal resize happens first.
		s.Term.Resize(cmd.Rows, cmd.Cols)
		if err := s.pty.Resize(cmd.Cols, cmd.Rows, cmd.PxWidth, cmd.PxHeight); err != nil {
			s.log.Warn().Err(err).Msg("pty resize failed")
		}
		return true
	case CommandShutdown:
		s.drainWrites()
		s.pty.Close()
		return false
	}
	return true
}

func (s *Session) emit(e Event) {
	select {
	case s.events <- e:
	default:
		// Events channel is bounded; when it is full the event being
		// emitted is dropped (a Wakeup is a "render when able" hint, not
		// a queue of frames, so dropping a redundant one is harmless).
	}
}

type bellProvider struct{ s *Session }

func (b bellProvider) Ring() { b.s.emit(Event{Kind: EventBell}) }

type titleProvider struct{ s *Session }

func (t titleProvider) SetTitle(title string) { t.s.emit(Event{Kind: EventTitle, Title: title}) }
func (t titleProvider) PushTitle()             {}
func (t titleProvider) PopTitle()              { t.s.emit(Event{Kind: EventResetTitle}) }

type clipboardProvider struct{ s *Session }

func (c clipboardProvider) Read(clipboard byte) string {
	result := make(chan string, 1)
	c.s.emit(Event{
		Kind:      EventClipboardLoad,
		Clipboard: clipboard,
		Respond:   func(text string) { result <- text },
	})
	select {
	case text := <-result:
		return text
	case <-time.After(200 * time.Millisecond):
		return ""
	}
}

func (c clipboardProvider) Write(clipboard byte, data []byte) {
	c.s.emit(Event{Kind: EventClipboardStore, Clipboard: clipboard, Text: string(data)})
}
