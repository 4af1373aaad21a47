package looper

// BackendKind identifies a readiness backend.
type BackendKind int

const (
	// BackendNotify is the kernel notification backend: epoll on Linux,
	// kqueue on Darwin. Registration is independent of an in-flight wait,
	// so AddFd and RemoveFd never interrupt the owner. This is the default.
	BackendNotify BackendKind = iota

	// BackendPoll is the portable poll(2) backend. The wait call operates on
	// the registration array itself, so AddFd and RemoveFd wake the owner
	// and wait for its poll call to return before touching the array.
	BackendPoll
)

// String returns a human-readable name for the backend.
func (k BackendKind) String() string {
	switch k {
	case BackendNotify:
		return "notify"
	case BackendPoll:
		return "poll"
	default:
		return "unknown"
	}
}

// event is one ready fd, as reported by a backend wait.
type event struct {
	fd     int
	events Events
}

// backend is a readiness-waiting strategy.
//
// add, remove and close are serialized by the looper. For backends reporting
// snapshot() == true, they are also never concurrent with wait.
type backend interface {
	// add registers fd, or replaces the interest of an fd already
	// registered, as indicated by replace.
	add(fd int, events Events, replace bool) error

	// remove unregisters fd. Errors indicating the kernel has already
	// forgotten the fd (because it was closed) are not reported.
	remove(fd int) error

	// wait blocks for up to timeoutMillis (forever if negative), appending
	// ready fds to dst. Returns errInterrupted if interrupted by a signal.
	wait(timeoutMillis int, dst []event) ([]event, error)

	// snapshot reports whether wait operates on the registration state
	// directly, requiring the wake-lock protocol.
	snapshot() bool

	close() error
}

// newBackend constructs the backend for kind, falling back to the poll
// backend where no notification backend exists.
func newBackend(kind BackendKind, maxEvents int) (backend, error) {
	if kind == BackendNotify {
		b, err := newNotifyBackend(maxEvents)
		if err != ErrUnsupported {
			return b, err
		}
	}
	return newPollBackend()
}
