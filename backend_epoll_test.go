//go:build linux

package looper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestEpollEventConversion(t *testing.T) {
	assert.Equal(t, uint32(unix.EPOLLIN|unix.EPOLLOUT), eventsToEpoll(EventInput|EventOutput|EventHangup))
	assert.Equal(t, EventInput|EventError|EventHangup, epollToEvents(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP))
	assert.Equal(t, EventOutput, epollToEvents(unix.EPOLLOUT))
}

func TestEpollBackend_AddFallbacks(t *testing.T) {
	b := newTestBackend(t, BackendNotify)
	p := newTestPipe(t)

	// a replace of an fd the kernel has never seen falls back to add
	require.NoError(t, b.add(p.r, EventInput, true))
	// and an add of one it has falls back to modify
	require.NoError(t, b.add(p.r, EventInput|EventOutput, false))
}

func TestLooper_AddClosedFd(t *testing.T) {
	l := newTestLooper(t, BackendNotify)
	p := newTestPipe(t)
	fd := p.r
	p.closeRead()

	err := l.AddFd(fd, 0, EventInput, func(int, Events, any) bool { return true }, nil)
	var resErr *ResourceError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "add", resErr.Op)
	assert.Equal(t, fd, resErr.FD)
	assert.ErrorIs(t, err, unix.EBADF)
	assert.Equal(t, 0, l.Len())
}
