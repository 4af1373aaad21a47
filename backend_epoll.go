//go:build linux

package looper

import (
	"golang.org/x/sys/unix"
)

// epollBackend waits using epoll (Linux).
type epollBackend struct {
	eventBuf []unix.EpollEvent
	epfd     int
}

func newNotifyBackend(maxEvents int) (backend, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollBackend{
		epfd:     epfd,
		eventBuf: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func (b *epollBackend) add(fd int, events Events, replace bool) error {
	ev := &unix.EpollEvent{
		Events: eventsToEpoll(events),
		Fd:     int32(fd),
	}
	op := unix.EPOLL_CTL_ADD
	if replace {
		op = unix.EPOLL_CTL_MOD
	}
	err := unix.EpollCtl(b.epfd, op, fd, ev)
	switch {
	case err == unix.ENOENT && op == unix.EPOLL_CTL_MOD:
		// the old fd was closed, and the number reused
		err = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_ADD, fd, ev)
	case err == unix.EEXIST && op == unix.EPOLL_CTL_ADD:
		err = unix.EpollCtl(b.epfd, unix.EPOLL_CTL_MOD, fd, ev)
	}
	return err
}

func (b *epollBackend) remove(fd int) error {
	err := unix.EpollCtl(b.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	if err == unix.ENOENT || err == unix.EBADF {
		return nil
	}
	return err
}

func (b *epollBackend) wait(timeoutMillis int, dst []event) ([]event, error) {
	if timeoutMillis < 0 {
		timeoutMillis = -1
	}
	n, err := unix.EpollWait(b.epfd, b.eventBuf, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return dst, errInterrupted
		}
		return dst, err
	}
	for i := 0; i < n; i++ {
		dst = append(dst, event{
			fd:     int(b.eventBuf[i].Fd),
			events: epollToEvents(b.eventBuf[i].Events),
		})
	}
	return dst, nil
}

func (b *epollBackend) snapshot() bool { return false }

func (b *epollBackend) close() error {
	return unix.Close(b.epfd)
}

// eventsToEpoll converts Events to epoll event flags.
func eventsToEpoll(events Events) uint32 {
	var epollEvents uint32
	if events&EventInput != 0 {
		epollEvents |= unix.EPOLLIN
	}
	if events&EventOutput != 0 {
		epollEvents |= unix.EPOLLOUT
	}
	return epollEvents
}

// epollToEvents converts epoll event flags to Events.
func epollToEvents(epollEvents uint32) Events {
	var events Events
	if epollEvents&unix.EPOLLIN != 0 {
		events |= EventInput
	}
	if epollEvents&unix.EPOLLOUT != 0 {
		events |= EventOutput
	}
	if epollEvents&unix.EPOLLERR != 0 {
		events |= EventError
	}
	if epollEvents&unix.EPOLLHUP != 0 {
		events |= EventHangup
	}
	return events
}
