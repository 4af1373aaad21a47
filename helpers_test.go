//go:build linux || darwin

package looper

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

var testBackends = [...]BackendKind{BackendNotify, BackendPoll}

// forEachBackend runs fn as a subtest for each backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, kind BackendKind)) {
	t.Helper()
	for _, kind := range testBackends {
		t.Run(kind.String(), func(t *testing.T) {
			fn(t, kind)
		})
	}
}

// newTestLooper creates a looper using kind, closed on cleanup.
func newTestLooper(t *testing.T, kind BackendKind, opts ...Option) *Looper {
	t.Helper()
	l, err := New(append(opts, WithBackend(kind))...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

// testPipe is a pipe, closed on cleanup unless closed already.
type testPipe struct {
	r, w int
}

func newTestPipe(t *testing.T) *testPipe {
	t.Helper()
	var fds [2]int
	require.NoError(t, unix.Pipe(fds[:]))
	p := &testPipe{r: fds[0], w: fds[1]}
	t.Cleanup(func() {
		p.closeRead()
		p.closeWrite()
	})
	return p
}

func (p *testPipe) write(t *testing.T, s string) {
	t.Helper()
	_, err := unix.Write(p.w, []byte(s))
	require.NoError(t, err)
}

func (p *testPipe) read(t *testing.T) string {
	t.Helper()
	buf := make([]byte, 256)
	n, err := unix.Read(p.r, buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func (p *testPipe) closeRead() {
	if p.r >= 0 {
		_ = unix.Close(p.r)
		p.r = -1
	}
}

func (p *testPipe) closeWrite() {
	if p.w >= 0 {
		_ = unix.Close(p.w)
		p.w = -1
	}
}

func newTestSocketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func writeFD(t *testing.T, fd int, s string) {
	t.Helper()
	_, err := unix.Write(fd, []byte(s))
	require.NoError(t, err)
}
