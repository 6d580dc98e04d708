package session

import (
	"bytes"
	"time"
)

// DCS P=1s ... P=2s brackets a synchronized-update window (mode 2026):
// bytes between the two markers are parsed into a shadow state the
// renderer must not observe until the window closes (§4.5, §8
// scenario 5). go-ansicode's Handler surface for DCS hook/put/unhook
// isn't present anywhere in the retrieved pack, so rather than guess
// at an unseen API this is handled the same way user_vars.go handles
// OSC 1337: a small byte-level scanner run ahead of the decoder.
var (
	dcsSyncBegin = []byte("\x1bP=1s\x1b\\")
	dcsSyncEnd   = []byte("\x1bP=2s\x1b\\")
)

// maxMarkerPrefix bounds how many trailing bytes of a chunk could be
// the unterminated start of either marker and must be held back
// across reads instead of being declared plain content.
const maxMarkerPrefix = 6 // one less than the shorter marker's length

// feed hands accumulated bytes to the terminal, splitting out
// synchronized-update brackets so bytes inside the window are
// buffered into a shadow slice instead of applied immediately, and
// emits a single coalesced Wakeup per call for whatever was applied
// live.
func (s *Session) feed(data []byte) {
	if len(s.syncCarry) > 0 {
		data = append(s.syncCarry, data...)
		s.syncCarry = nil
	}

	wroteOutsideSync := false
	i := 0
	for {
		rest := data[i:]
		begin := bytes.Index(rest, dcsSyncBegin)
		end := bytes.Index(rest, dcsSyncEnd)

		pos, markerLen, isBegin := nextMarker(begin, end)
		if pos < 0 {
			break
		}

		if pos > 0 {
			if s.writeChunk(rest[:pos]) {
				wroteOutsideSync = true
			}
		}

		if isBegin {
			s.beginSync()
		} else if s.syncActive {
			if s.endSync() {
				wroteOutsideSync = true
			}
		}
		i += pos + markerLen
	}

	tail := data[i:]
	holdback := partialMarkerSuffix(tail)
	plain := tail[:len(tail)-holdback]
	if len(plain) > 0 && s.writeChunk(plain) {
		wroteOutsideSync = true
	}
	if holdback > 0 {
		s.syncCarry = append(s.syncCarry, tail[len(tail)-holdback:]...)
	}

	if wroteOutsideSync {
		s.emit(Event{Kind: EventWakeup})
	}
}

// nextMarker picks whichever of a begin/end marker index occurs first
// (either may be -1, meaning "not found").
func nextMarker(begin, end int) (pos, markerLen int, isBegin bool) {
	switch {
	case begin < 0 && end < 0:
		return -1, 0, false
	case begin < 0:
		return end, len(dcsSyncEnd), false
	case end < 0:
		return begin, len(dcsSyncBegin), true
	case begin < end:
		return begin, len(dcsSyncBegin), true
	default:
		return end, len(dcsSyncEnd), false
	}
}

// writeChunk applies chunk to the live terminal, or buffers it in the
// shadow state if a sync window is open, splitting at
// maxLockedRead-sized pieces either way. It reports whether anything
// reached the live terminal.
func (s *Session) writeChunk(chunk []byte) bool {
	if s.syncActive {
		s.syncBuf = append(s.syncBuf, chunk...)
		return false
	}
	for len(chunk) > 0 {
		piece := chunk
		if len(piece) > maxLockedRead {
			piece = chunk[:maxLockedRead]
		}
		chunk = chunk[len(piece):]
		s.Term.Write(piece)
	}
	return true
}

// beginSync opens the buffering window.
func (s *Session) beginSync() {
	s.syncActive = true
	s.syncDeadline = time.Now().Add(syncDeadline)
}

// endSync closes the window (explicit P=2s marker, or deadline
// expiry from Run's poll loop) and atomically applies the shadow
// bytes to the live terminal in one batch. Reports whether there was
// anything to apply.
func (s *Session) endSync() bool {
	s.syncActive = false
	buf := s.syncBuf
	s.syncBuf = nil
	if len(buf) == 0 {
		return false
	}
	for len(buf) > 0 {
		piece := buf
		if len(piece) > maxLockedRead {
			piece = buf[:maxLockedRead]
		}
		buf = buf[len(piece):]
		s.Term.Write(piece)
	}
	return true
}

// partialMarkerSuffix returns how many trailing bytes of data could
// be the unterminated start of either marker and must be carried over
// to the next feed call rather than declared plain content now.
func partialMarkerSuffix(data []byte) int {
	max := maxMarkerPrefix
	if len(data) < max {
		max = len(data)
	}
	for n := max; n > 0; n-- {
		suffix := data[len(data)-n:]
		if bytes.HasPrefix(dcsSyncBegin, suffix) || bytes.HasPrefix(dcsSyncEnd, suffix) {
			return n
		}
	}
	return 0
}
