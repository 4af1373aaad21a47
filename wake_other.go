//go:build !linux && !darwin

package looper

func createWakeFd() (int, int, error) {
	return -1, -1, ErrUnsupported
}

func (w *wakeChannel) signal() error { return ErrUnsupported }

func (w *wakeChannel) drain() {}

func closeFD(int) error { return ErrUnsupported }
