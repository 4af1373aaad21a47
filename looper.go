package looper

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/joeycumines/logiface"
)

// Controller is the subset of Looper that may be used from any goroutine.
// Components that only register fds or wake the owner should hold a
// Controller rather than a *Looper.
type Controller interface {
	AddFd(fd, ident int, events Events, callback Callback, data any) error
	RemoveFd(fd int) (bool, error)
	Wake()
}

var _ Controller = (*Looper)(nil)

// Looper waits for readiness of a set of fds, for a wake signal, or for a
// timeout, on behalf of a single owning goroutine.
//
// Thread Safety: AddFd, RemoveFd, Wake, Len and the accessors may be called
// from any goroutine. PollOnce, PollAll and Close must only be called by the
// owner, and callbacks run on the owner during PollOnce.
type Looper struct {
	_ [0]func() // Prevent copying

	logger   *logiface.Logger[logiface.Event]
	observer Observer
	backend  backend
	wake     *wakeChannel

	requests  *requestTable
	responses *responseQueue
	events    []event

	// mu guards requests and backend registration. For snapshot backends,
	// resume and awake implement the wake-lock protocol with polling and
	// waiters, see acquire.
	mu     sync.Mutex
	resume sync.Cond
	awake  sync.Cond

	// closeMu orders Wake against Close, so the wake fd is never written
	// after it has been closed.
	closeMu sync.RWMutex
	closed  atomic.Bool

	waiters int
	kind    BackendKind

	polling           bool
	snapshot          bool
	allowNonCallbacks bool
	dispatching       bool
}

// New creates a looper, with its own wake channel and backend.
//
// Returns a *SetupError if either could not be created, in which case
// nothing is leaked.
func New(opts ...Option) (*Looper, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	wake, err := newWakeChannel()
	if err != nil {
		return nil, &SetupError{Message: "looper: could not create wake channel", Cause: err}
	}

	be, err := newBackend(cfg.backend, cfg.maxEvents)
	if err != nil {
		_ = wake.close()
		return nil, &SetupError{Message: "looper: could not create backend", Cause: err}
	}

	if err := be.add(wake.readFD, EventInput, false); err != nil {
		_ = be.close()
		_ = wake.close()
		return nil, &SetupError{Message: "looper: could not watch wake channel", Cause: err}
	}

	l := &Looper{
		logger:            cfg.logger,
		observer:          cfg.observer,
		backend:           be,
		wake:              wake,
		requests:          newRequestTable(),
		responses:         newResponseQueue(),
		events:            make([]event, 0, cfg.maxEvents),
		kind:              cfg.backend,
		snapshot:          be.snapshot(),
		allowNonCallbacks: cfg.allowNonCallbacks,
	}
	if l.observer == nil {
		l.observer = ObserverFuncs{}
	}
	if l.snapshot {
		l.kind = BackendPoll
	}
	l.resume.L = &l.mu
	l.awake.L = &l.mu

	l.logger.Debug().
		Str(fieldCategory, categoryPoll).
		Str("backend", l.kind.String()).
		Int("wake_fd", wake.readFD).
		Bool("allow_non_callbacks", l.allowNonCallbacks).
		Log("looper: created")

	return l, nil
}

// AllowNonCallbacks reports whether registrations without a callback are
// accepted.
func (l *Looper) AllowNonCallbacks() bool { return l.allowNonCallbacks }

// Backend returns the backend in use, which is BackendPoll if BackendNotify
// was requested on a platform without one.
func (l *Looper) Backend() BackendKind { return l.kind }

// Len returns the number of watched fds, not including the wake channel.
func (l *Looper) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.requests.len()
}

// AddFd watches fd for the given events, replacing any existing
// registration for fd. Only EventInput and EventOutput are meaningful as
// interest, and the result-only flags are always reported.
//
// If callback is nil, ident must be >= 0, and the looper must allow
// non-callback registrations; readiness is then reported by PollOnce
// returning ident. Otherwise ident is retained but never returned.
//
// Returns a *UsageError for invalid arguments, ErrClosed, or a
// *ResourceError if the backend rejected fd. The registrations are
// unchanged on error.
func (l *Looper) AddFd(fd, ident int, events Events, callback Callback, data any) error {
	if l.closed.Load() {
		return ErrClosed
	}
	if err := l.validateAdd(fd, ident, callback); err != nil {
		return err
	}
	events &= interestMask

	l.acquire()
	defer l.release()

	if l.closed.Load() {
		return ErrClosed
	}

	_, replace := l.requests.get(fd)
	if err := l.backend.add(fd, events, replace); err != nil {
		l.logger.Err().
			Str(fieldCategory, categoryPoll).
			Int("fd", fd).
			Err(err).
			Log("looper: error adding fd")
		return &ResourceError{Op: "add", FD: fd, Err: err}
	}

	l.requests.put(Registration{
		Callback: callback,
		Data:     data,
		FD:       fd,
		Ident:    ident,
		Events:   events,
	})
	return nil
}

func (l *Looper) validateAdd(fd, ident int, callback Callback) error {
	switch {
	case fd < 0:
		return &UsageError{Cause: ErrInvalidFD, Message: "looper: fd must be >= 0"}
	case fd == l.wake.readFD || fd == l.wake.writeFD:
		return &UsageError{Cause: ErrInvalidFD, Message: "looper: fd is the looper's wake channel"}
	case callback != nil:
		return nil
	case !l.allowNonCallbacks:
		return &UsageError{Cause: ErrCallbackRequired, Message: "looper: callback required, looper does not allow non-callbacks"}
	case ident < 0:
		return &UsageError{Cause: ErrInvalidIdent}
	}
	return nil
}

// RemoveFd stops watching fd, returning true if it was registered. Queued
// responses for fd from the latest wait are still delivered.
//
// The registration is dropped even when the backend fails to forget fd,
// in which case a *ResourceError is returned alongside true.
func (l *Looper) RemoveFd(fd int) (bool, error) {
	l.acquire()
	defer l.release()

	if l.closed.Load() {
		return false, ErrClosed
	}

	if !l.requests.remove(fd) {
		return false, nil
	}

	if err := l.backend.remove(fd); err != nil {
		l.logger.Err().
			Str(fieldCategory, categoryPoll).
			Int("fd", fd).
			Err(err).
			Log("looper: error removing fd")
		return true, &ResourceError{Op: "remove", FD: fd, Err: err}
	}
	return true, nil
}

// Wake interrupts a PollOnce in progress, or causes the next one to return
// immediately, with PollWake. Any number of calls before the owner observes
// the wake collapse into one. Never blocks on the owner. A no-op once the
// looper is closed.
func (l *Looper) Wake() {
	l.closeMu.RLock()
	defer l.closeMu.RUnlock()
	if l.closed.Load() {
		return
	}
	l.signal()
}

// Close releases the backend and the wake channel, and drops every
// registration. It must be called by the owner, while it is not polling.
// Subsequent calls return nil.
func (l *Looper) Close() error {
	l.closeMu.Lock()
	defer l.closeMu.Unlock()
	if l.closed.Swap(true) {
		return nil
	}

	l.mu.Lock()
	n := l.requests.len()
	l.requests = newRequestTable()
	l.responses.clear()
	err := l.backend.close()
	l.mu.Unlock()

	err = errors.Join(err, l.wake.close())

	l.logger.Debug().
		Str(fieldCategory, categoryPoll).
		Int("dropped", n).
		Call(func(b *logiface.Builder[logiface.Event]) {
			if err != nil {
				b.Err(err)
			}
		}).
		Log("looper: closed")

	return err
}

// signal writes to the wake channel. Callers must prevent a concurrent
// Close.
func (l *Looper) signal() {
	l.observer.OnWake()
	if err := l.wake.signal(); err != nil {
		l.logger.Err().
			Limit().
			Str(fieldCategory, categoryWake).
			Err(err).
			Log("looper: could not write wake signal")
	}
}

// awoken drains the wake channel, on the owner.
func (l *Looper) awoken() {
	l.wake.drain()
	l.observer.OnAwoken()
}

// acquire locks mu for a registration change. For snapshot backends it
// first interrupts any wait in progress, and blocks until it has returned,
// so the registration array is never mutated while the kernel is using it.
// The owner will not start another wait until every waiter has released.
func (l *Looper) acquire() {
	l.mu.Lock()
	if !l.snapshot {
		return
	}
	l.waiters++
	for l.polling {
		l.signal()
		l.awake.Wait()
	}
}

func (l *Looper) release() {
	if l.snapshot {
		l.waiters--
		if l.waiters == 0 {
			l.resume.Signal()
		}
	}
	l.mu.Unlock()
}
