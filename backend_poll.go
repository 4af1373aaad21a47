//go:build linux || darwin

package looper

import (
	"golang.org/x/sys/unix"
)

// pollBackend waits using poll(2), on an array of every registered fd.
//
// The array is handed to the kernel as-is, so it must not be modified while
// wait is in progress. The looper guarantees that with the wake-lock
// protocol, see Looper.acquire.
type pollBackend struct {
	index map[int]int
	fds   []unix.PollFd
}

func newPollBackend() (backend, error) {
	return &pollBackend{index: make(map[int]int)}, nil
}

func (b *pollBackend) add(fd int, events Events, _ bool) error {
	pfd := unix.PollFd{Fd: int32(fd), Events: eventsToPoll(events)}
	if i, ok := b.index[fd]; ok {
		b.fds[i] = pfd
		return nil
	}
	b.index[fd] = len(b.fds)
	b.fds = append(b.fds, pfd)
	return nil
}

func (b *pollBackend) remove(fd int) error {
	i, ok := b.index[fd]
	if !ok {
		return nil
	}
	last := len(b.fds) - 1
	b.fds[i] = b.fds[last]
	b.index[int(b.fds[i].Fd)] = i
	b.fds = b.fds[:last]
	delete(b.index, fd)
	return nil
}

func (b *pollBackend) wait(timeoutMillis int, dst []event) ([]event, error) {
	if timeoutMillis < 0 {
		timeoutMillis = -1
	}
	n, err := unix.Poll(b.fds, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return dst, errInterrupted
		}
		return dst, err
	}
	for i := 0; i < len(b.fds) && n > 0; i++ {
		revents := b.fds[i].Revents
		if revents == 0 {
			continue
		}
		n--
		dst = append(dst, event{
			fd:     int(b.fds[i].Fd),
			events: pollToEvents(revents),
		})
	}
	return dst, nil
}

func (b *pollBackend) snapshot() bool { return true }

func (b *pollBackend) close() error {
	b.fds = nil
	b.index = nil
	return nil
}

// eventsToPoll converts Events to poll(2) event flags.
func eventsToPoll(events Events) int16 {
	var pollEvents int16
	if events&EventInput != 0 {
		pollEvents |= unix.POLLIN
	}
	if events&EventOutput != 0 {
		pollEvents |= unix.POLLOUT
	}
	return pollEvents
}

// pollToEvents converts poll(2) result flags to Events.
func pollToEvents(revents int16) Events {
	var events Events
	if revents&unix.POLLIN != 0 {
		events |= EventInput
	}
	if revents&unix.POLLOUT != 0 {
		events |= EventOutput
	}
	if revents&unix.POLLERR != 0 {
		events |= EventError
	}
	if revents&unix.POLLHUP != 0 {
		events |= EventHangup
	}
	if revents&unix.POLLNVAL != 0 {
		events |= EventInvalid
	}
	return events
}
