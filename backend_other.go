//go:build !linux && !darwin

package looper

func newNotifyBackend(int) (backend, error) {
	return nil, ErrUnsupported
}

func newPollBackend() (backend, error) {
	return nil, ErrUnsupported
}
