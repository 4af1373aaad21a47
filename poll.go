package looper

import (
	"fmt"
	"time"
)

// Poll results. Any result >= 0 is the ident of a ready registration that
// has no callback.
const (
	// PollWake indicates the wait returned before the timeout, usually
	// because of Wake, and no callbacks were invoked.
	PollWake = -1

	// PollCallback indicates one or more callbacks were invoked.
	PollCallback = -2

	// PollTimeout indicates the timeout expired with nothing ready.
	PollTimeout = -3

	// PollError indicates the wait failed, or the looper is closed.
	PollError = -4
)

// PollOnce waits up to timeoutMillis (forever if negative, not at all if
// zero) for readiness, invoking the callbacks of any ready fds.
//
// Returns the ident of a ready registration without a callback, together
// with its details, or one of PollWake, PollCallback, PollTimeout or
// PollError. Several callback-less registrations made ready by the same wait
// are returned by consecutive calls, before any further waiting.
//
// Must only be called by the owner, and never from a callback.
func (l *Looper) PollOnce(timeoutMillis int) (int, Output) {
	if l.dispatching {
		l.logger.Err().
			Str(fieldCategory, categoryPoll).
			Err(ErrReentrantPoll).
			Log("looper: poll rejected")
		return PollError, Output{}
	}

	var result int
	for {
		for l.responses.len() != 0 {
			resp, _ := l.responses.pop()
			if resp.Registration.Callback == nil {
				return resp.Registration.Ident, Output{
					Data:   resp.Registration.Data,
					FD:     resp.Registration.FD,
					Events: resp.Events,
				}
			}
		}

		if result != 0 {
			return result, Output{}
		}

		result = l.pollInner(timeoutMillis)
	}
}

// PollAll is like PollOnce, but continues polling after callbacks are
// invoked, until an ident, a wake, a timeout or an error. A positive
// timeout bounds the whole call, not each wait.
func (l *Looper) PollAll(timeoutMillis int) (int, Output) {
	if timeoutMillis <= 0 {
		for {
			result, out := l.PollOnce(timeoutMillis)
			if result != PollCallback {
				return result, out
			}
		}
	}

	deadline := time.Now().Add(time.Duration(timeoutMillis) * time.Millisecond)
	for {
		result, out := l.PollOnce(timeoutMillis)
		if result != PollCallback {
			return result, out
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return PollTimeout, Output{}
		}
		timeoutMillis = int((remaining + time.Millisecond - 1) / time.Millisecond)
	}
}

// pollInner runs one wait, queues its responses, and invokes callbacks.
// It always returns a negative result.
func (l *Looper) pollInner(timeoutMillis int) int {
	if l.closed.Load() {
		return PollError
	}

	l.responses.clear()

	if l.snapshot {
		l.mu.Lock()
		for l.waiters != 0 {
			l.resume.Wait()
		}
		l.polling = true
		l.mu.Unlock()
	}

	start := time.Now()
	events, err := l.wait(start, timeoutMillis)
	elapsed := time.Since(start)

	result := PollWake

	l.mu.Lock()
	switch {
	case err != nil:
		l.logger.Err().
			Limit().
			Str(fieldCategory, categoryPoll).
			Err(err).
			Log("looper: wait failed")
		result = PollError
	case len(events) == 0:
		result = PollTimeout
	default:
		for _, ev := range events {
			if ev.fd == l.wake.readFD {
				if ev.events&EventInput != 0 {
					l.awoken()
				} else {
					l.logger.Warning().
						Limit().
						Str(fieldCategory, categoryWake).
						Str("events", ev.events.String()).
						Log("looper: unexpected wake channel events")
				}
				continue
			}
			reg, ok := l.requests.get(ev.fd)
			if !ok {
				l.logger.Debug().
					Str(fieldCategory, categoryPoll).
					Int("fd", ev.fd).
					Str("events", ev.events.String()).
					Log("looper: dropping events for unregistered fd")
				continue
			}
			l.responses.push(Response{Registration: reg, Events: ev.events})
		}
	}
	if l.snapshot {
		l.polling = false
		l.awake.Broadcast()
	}
	l.mu.Unlock()

	l.events = events[:0]

	l.observer.OnPoll(timeoutMillis, result, elapsed)

	for i := 0; i < l.responses.len(); i++ {
		resp := l.responses.at(i)
		if resp.Registration.Callback == nil {
			continue
		}
		if !l.invokeCallback(resp) {
			// errors are logged by RemoveFd
			_, _ = l.RemoveFd(resp.Registration.FD)
		}
		result = PollCallback
	}

	return result
}

// wait calls the backend, retrying interrupted waits for whatever remains
// of timeoutMillis since start.
func (l *Looper) wait(start time.Time, timeoutMillis int) ([]event, error) {
	events, err := l.backend.wait(timeoutMillis, l.events[:0])
	for err == errInterrupted {
		remaining := timeoutMillis
		if timeoutMillis > 0 {
			remaining -= int(time.Since(start) / time.Millisecond)
			if remaining <= 0 {
				return events[:0], nil
			}
		}
		events, err = l.backend.wait(remaining, events[:0])
	}
	return events, err
}

// invokeCallback runs the callback of resp, reporting whether to keep
// watching. A panic is logged, and stops watching.
func (l *Looper) invokeCallback(resp Response) (keep bool) {
	l.dispatching = true
	defer func() {
		l.dispatching = false
		if r := recover(); r != nil {
			l.logger.Err().
				Str(fieldCategory, categoryCallback).
				Int("fd", resp.Registration.FD).
				Int("ident", resp.Registration.Ident).
				Str("panic", fmt.Sprint(r)).
				Log("looper: callback panicked")
			keep = false
		}
	}()
	return resp.Registration.Callback(resp.Registration.FD, resp.Events, resp.Registration.Data)
}
