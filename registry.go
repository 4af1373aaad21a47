package looper

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/joeycumines/logiface"
)

// Registry binds at most one Looper to each goroutine.
//
// A goroutine's looper is created lazily by Prepare, or bound by Set, and
// lives until Release. Registry.Go runs a worker with those hooks around it.
type Registry struct {
	logger  *logiface.Logger[logiface.Event]
	loopers map[uint64]*Looper
	opts    []Option
	mu      sync.Mutex
}

// DefaultRegistry backs the package-level Prepare, Current, Set, Release and
// Go.
// It logs warnings and errors to stderr.
var DefaultRegistry = NewRegistry(NewLogger(os.Stderr, logiface.LevelWarning))

// NewRegistry returns an empty Registry. Loopers it creates log to logger,
// and are configured with opts, before any options passed to Prepare.
func NewRegistry(logger *logiface.Logger[logiface.Event], opts ...Option) *Registry {
	return &Registry{
		logger:  logger,
		loopers: make(map[uint64]*Looper),
		opts:    append([]Option{WithLogger(logger)}, opts...),
	}
}

// Prepare returns the looper bound to the calling goroutine, creating and
// binding one if there is none. An existing looper is returned as-is, even
// if allowNonCallbacks or opts differ from those it was created with.
//
// Goroutine identity is not reused, and nothing observes a goroutine
// exiting, so a looper prepared outside of Go must be released by its
// goroutine with Release. Otherwise it, and its fds, leak for the life of
// the registry.
func (r *Registry) Prepare(allowNonCallbacks bool, opts ...Option) (*Looper, error) {
	id := getGoroutineID()

	r.mu.Lock()
	defer r.mu.Unlock()

	if l := r.loopers[id]; l != nil {
		if l.AllowNonCallbacks() != allowNonCallbacks {
			r.logger.Warning().
				Str(fieldCategory, categoryRegistry).
				Uint64("goroutine", id).
				Bool("allow_non_callbacks", l.AllowNonCallbacks()).
				Log("looper: prepare called with different allowNonCallbacks, using existing looper")
		}
		return l, nil
	}

	all := make([]Option, 0, len(r.opts)+len(opts)+1)
	all = append(all, r.opts...)
	all = append(all, opts...)
	all = append(all, WithAllowNonCallbacks(allowNonCallbacks))
	l, err := New(all...)
	if err != nil {
		return nil, err
	}
	r.loopers[id] = l

	r.logger.Debug().
		Str(fieldCategory, categoryRegistry).
		Uint64("goroutine", id).
		Log("looper: prepared")

	return l, nil
}

// Current returns the looper bound to the calling goroutine, or nil.
func (r *Registry) Current() *Looper {
	id := getGoroutineID()
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loopers[id]
}

// Set binds l to the calling goroutine, replacing any existing binding, and
// returns the looper previously bound, or nil. The previous looper is not
// closed, that is left to the caller. Set(nil) only unbinds.
func (r *Registry) Set(l *Looper) (old *Looper) {
	id := getGoroutineID()

	r.mu.Lock()
	defer r.mu.Unlock()

	old = r.loopers[id]
	if l == nil {
		delete(r.loopers, id)
	} else {
		r.loopers[id] = l
	}

	r.logger.Debug().
		Str(fieldCategory, categoryRegistry).
		Uint64("goroutine", id).
		Bool("bound", l != nil).
		Bool("replaced", old != nil).
		Log("looper: set")

	return old
}

// Release unbinds and closes the looper bound to the calling goroutine, if
// any.
func (r *Registry) Release() error {
	id := getGoroutineID()

	r.mu.Lock()
	l := r.loopers[id]
	delete(r.loopers, id)
	r.mu.Unlock()

	if l == nil {
		return nil
	}
	return l.Close()
}

// Len returns the number of bound loopers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loopers)
}

// Go runs fn on a new goroutine locked to its OS thread, with a looper
// prepared for it, released once fn returns. The returned channel receives
// the combined error of fn and the release, then is closed. A panic in fn is
// recovered and reported as an error.
func (r *Registry) Go(allowNonCallbacks bool, fn func(l *Looper) error, opts ...Option) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		done <- r.run(allowNonCallbacks, fn, opts)
	}()
	return done
}

func (r *Registry) run(allowNonCallbacks bool, fn func(l *Looper) error, opts []Option) (err error) {
	l, err := r.Prepare(allowNonCallbacks, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Err().
				Str(fieldCategory, categoryRegistry).
				Str("panic", fmt.Sprint(rec)).
				Log("looper: worker panicked")
			err = fmt.Errorf("looper: worker panicked: %v", rec)
		}
		err = errors.Join(err, r.Release())
	}()
	return fn(l)
}

// Prepare calls DefaultRegistry.Prepare.
func Prepare(allowNonCallbacks bool, opts ...Option) (*Looper, error) {
	return DefaultRegistry.Prepare(allowNonCallbacks, opts...)
}

// Current calls DefaultRegistry.Current.
func Current() *Looper {
	return DefaultRegistry.Current()
}

// Set calls DefaultRegistry.Set.
func Set(l *Looper) (old *Looper) {
	return DefaultRegistry.Set(l)
}

// Release calls DefaultRegistry.Release.
func Release() error {
	return DefaultRegistry.Release()
}

// Go calls DefaultRegistry.Go.
func Go(allowNonCallbacks bool, fn func(l *Looper) error, opts ...Option) <-chan error {
	return DefaultRegistry.Go(allowNonCallbacks, fn, opts...)
}
