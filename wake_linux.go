//go:build linux

package looper

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// wakeToken increments the eventfd counter by one.
var wakeToken = binary.NativeEndian.AppendUint64(nil, 1)

// createWakeFd creates an eventfd for wake-up notifications (Linux).
// Returns the single eventfd as both read and write ends.
func createWakeFd() (int, int, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	return fd, fd, err
}
