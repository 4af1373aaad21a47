package looper

import (
	"strconv"
	"strings"
)

// Events is a bitmask of readiness conditions for a file descriptor.
//
// EventInput and EventOutput may be requested as interest. The remaining bits
// are only ever reported.
type Events uint32

const (
	// EventInput indicates the fd is readable.
	EventInput Events = 1 << iota
	// EventOutput indicates the fd is writable.
	EventOutput
	// EventError indicates an error condition on the fd.
	EventError
	// EventHangup indicates the peer closed its end.
	EventHangup
	// EventInvalid indicates the fd is not open. It is terminal: the fd
	// should be removed.
	EventInvalid
)

// interestMask is the subset of Events accepted by AddFd.
const interestMask = EventInput | EventOutput

var eventNames = [...]string{"INPUT", "OUTPUT", "ERROR", "HANGUP", "INVALID"}

// String returns the set bits joined by "|", e.g. "INPUT|HANGUP".
func (e Events) String() string {
	if e == 0 {
		return "0"
	}
	var b strings.Builder
	for i, name := range eventNames {
		if e&(1<<i) == 0 {
			continue
		}
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
	}
	if rest := e &^ (1<<len(eventNames) - 1); rest != 0 {
		if b.Len() != 0 {
			b.WriteByte('|')
		}
		b.WriteString("0x")
		b.WriteString(strconv.FormatUint(uint64(rest), 16))
	}
	return b.String()
}
