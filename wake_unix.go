//go:build linux || darwin

package looper

import (
	"golang.org/x/sys/unix"
)

// signal writes one wake token. A full channel already guarantees a wake, so
// EAGAIN is not an error.
func (w *wakeChannel) signal() error {
	for {
		_, err := unix.Write(w.writeFD, wakeToken)
		switch err {
		case unix.EINTR:
			continue
		case nil, unix.EAGAIN:
			return nil
		default:
			return err
		}
	}
}

// drain consumes every pending wake token.
func (w *wakeChannel) drain() {
	for {
		n, err := unix.Read(w.readFD, w.buf[:])
		if err == unix.EINTR {
			continue
		}
		if err != nil || n < len(w.buf) {
			return
		}
	}
}

func closeFD(fd int) error {
	return unix.Close(fd)
}
