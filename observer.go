package looper

import (
	"time"
)

// Observer receives notifications useful for instrumentation. Observers are
// optional, and are not part of the functional behavior of the looper.
//
// OnWake may be called from any goroutine, concurrently with the other
// methods. OnAwoken and OnPoll are only called from the polling goroutine.
type Observer interface {
	// OnWake is called for each wake signal, including those sent by AddFd
	// and RemoveFd to interrupt a poll backend wait.
	OnWake()

	// OnAwoken is called when the polling goroutine consumes pending wake
	// signals.
	OnAwoken()

	// OnPoll is called after each backend wait, with the requested timeout,
	// the result (before callbacks are invoked), and the time spent waiting.
	OnPoll(timeoutMillis, result int, elapsed time.Duration)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	Wake   func()
	Awoken func()
	Poll   func(timeoutMillis, result int, elapsed time.Duration)
}

var _ Observer = ObserverFuncs{}

func (x ObserverFuncs) OnWake() {
	if x.Wake != nil {
		x.Wake()
	}
}

func (x ObserverFuncs) OnAwoken() {
	if x.Awoken != nil {
		x.Awoken()
	}
}

func (x ObserverFuncs) OnPoll(timeoutMillis, result int, elapsed time.Duration) {
	if x.Poll != nil {
		x.Poll(timeoutMillis, result, elapsed)
	}
}
