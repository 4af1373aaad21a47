//go:build linux || darwin

package looper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWakeChannel_SignalDrain(t *testing.T) {
	w, err := newWakeChannel()
	require.NoError(t, err)
	defer w.close()

	for i := 0; i < 1000; i++ {
		require.NoError(t, w.signal())
	}
	w.drain()

	// nothing left to read
	var buf [8]byte
	_, err = unix.Read(w.readFD, buf[:])
	assert.Equal(t, unix.EAGAIN, err)

	// and it can be signaled again
	require.NoError(t, w.signal())
	n, err := unix.Read(w.readFD, buf[:])
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestWakeChannel_Close(t *testing.T) {
	w, err := newWakeChannel()
	require.NoError(t, err)
	assert.NoError(t, w.close())
}

func TestWakeChannel_Nonblocking(t *testing.T) {
	w, err := newWakeChannel()
	require.NoError(t, err)
	defer w.close()

	for _, fd := range []int{w.readFD, w.writeFD} {
		flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
		require.NoError(t, err)
		assert.NotZero(t, flags&unix.O_NONBLOCK)
	}
}
