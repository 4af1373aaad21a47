//go:build darwin

package looper

import (
	"golang.org/x/sys/unix"
)

// kqueueBackend waits using kqueue (Darwin).
//
// kqueue reports one kevent per filter, so a single fd may appear more than
// once per wait. These are merged, so each fd yields at most one event.
type kqueueBackend struct {
	interest map[int]Events
	eventBuf []unix.Kevent_t
	changes  []unix.Kevent_t
	kq       int
}

func newNotifyBackend(maxEvents int) (backend, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &kqueueBackend{
		kq:       kq,
		interest: make(map[int]Events),
		// one fd may consume two kevents
		eventBuf: make([]unix.Kevent_t, maxEvents*2),
	}, nil
}

func (b *kqueueBackend) add(fd int, events Events, replace bool) error {
	old := b.interest[fd]
	if !replace {
		old = 0
	}
	b.changes = b.changes[:0]
	b.changes = appendKevents(b.changes, fd, events&^old, unix.EV_ADD|unix.EV_ENABLE)
	if len(b.changes) != 0 {
		if _, err := unix.Kevent(b.kq, b.changes, nil, nil); err != nil {
			return err
		}
	}
	if stale := old &^ events; stale != 0 {
		_ = b.deleteFilters(fd, stale)
	}
	b.interest[fd] = events
	return nil
}

func (b *kqueueBackend) remove(fd int) error {
	events, ok := b.interest[fd]
	if !ok {
		return nil
	}
	delete(b.interest, fd)
	return b.deleteFilters(fd, events)
}

// deleteFilters deletes each filter with its own kevent call. A failed change
// may leave the rest of a changelist unapplied. Filters that are already gone
// are not an error.
func (b *kqueueBackend) deleteFilters(fd int, events Events) error {
	b.changes = appendKevents(b.changes[:0], fd, events, unix.EV_DELETE)
	var err error
	for i := range b.changes {
		_, e := unix.Kevent(b.kq, b.changes[i:i+1], nil, nil)
		if e != nil && e != unix.ENOENT && e != unix.EBADF && err == nil {
			err = e
		}
	}
	return err
}

func (b *kqueueBackend) wait(timeoutMillis int, dst []event) ([]event, error) {
	var ts *unix.Timespec
	if timeoutMillis >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMillis) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(b.kq, nil, b.eventBuf, ts)
	if err != nil {
		if err == unix.EINTR {
			return dst, errInterrupted
		}
		return dst, err
	}
	base := len(dst)
next:
	for i := 0; i < n; i++ {
		ev := event{
			fd:     int(b.eventBuf[i].Ident),
			events: keventToEvents(&b.eventBuf[i]),
		}
		for j := base; j < len(dst); j++ {
			if dst[j].fd == ev.fd {
				dst[j].events |= ev.events
				continue next
			}
		}
		dst = append(dst, ev)
	}
	return dst, nil
}

func (b *kqueueBackend) snapshot() bool { return false }

func (b *kqueueBackend) close() error {
	return unix.Close(b.kq)
}

// appendKevents appends the kevents for the filters in events.
func appendKevents(dst []unix.Kevent_t, fd int, events Events, flags int) []unix.Kevent_t {
	if events&EventInput != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_READ, flags)
		dst = append(dst, k)
	}
	if events&EventOutput != 0 {
		var k unix.Kevent_t
		unix.SetKevent(&k, fd, unix.EVFILT_WRITE, flags)
		dst = append(dst, k)
	}
	return dst
}

// keventToEvents converts a kqueue event to Events.
func keventToEvents(kev *unix.Kevent_t) Events {
	var events Events
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= EventError
		if unix.Errno(kev.Data) == unix.EBADF {
			events |= EventInvalid
		}
		return events
	}
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= EventInput
	case unix.EVFILT_WRITE:
		events |= EventOutput
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= EventHangup
	}
	return events
}
