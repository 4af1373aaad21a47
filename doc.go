// Package looper provides a per-goroutine file descriptor readiness
// multiplexer, with a cross-goroutine wake signal.
//
// # Architecture
//
// A [Looper] is owned by one goroutine, which blocks in [Looper.PollOnce] or
// [Looper.PollAll] until a watched fd becomes ready, until another goroutine
// calls [Looper.Wake], or until a timeout expires. Ready fds registered with
// a [Callback] have it invoked on the owner. Ready fds registered without
// one are reported by returning their ident.
//
// # Platform Support
//
// Two backends are provided, selected with [WithBackend]:
//   - [BackendNotify]: epoll on Linux, kqueue on macOS
//   - [BackendPoll]: poll(2), on any unix
//
// The wake channel is an eventfd on Linux, and a non-blocking pipe on macOS.
//
// # Thread Safety
//
//   - [Looper.AddFd], [Looper.RemoveFd] and [Looper.Wake] are safe to call
//     from any goroutine, see also [Controller]
//   - [Looper.PollOnce], [Looper.PollAll] and [Looper.Close] belong to the
//     owner
//   - With [BackendPoll], AddFd and RemoveFd interrupt the owner's wait, and
//     block until it has returned
//
// # Per-goroutine Loopers
//
// [Registry] binds one looper to each goroutine, see [Prepare], [Current],
// [Set] and [Release]. [Go] runs a worker goroutine, locked to its OS thread,
// with a looper prepared before and released after it.
//
// Only [Go] releases automatically. A goroutine that calls [Prepare] or [Set]
// directly, then exits without [Release], leaks its looper and the looper's
// fds, since nothing observes goroutine exit.
//
// # Usage
//
//	l, err := looper.New(looper.WithAllowNonCallbacks(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Close()
//
//	if err := l.AddFd(fd, 1, looper.EventInput, nil, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	switch ident, out := l.PollAll(1000); ident {
//	case looper.PollTimeout:
//	    // nothing happened
//	case 1:
//	    // out.FD is readable
//	}
//
// # Error Types
//
//   - [UsageError]: invalid arguments to [Looper.AddFd]
//   - [ResourceError]: the backend rejected an fd
//   - [SetupError]: [New] could not create the wake channel or backend
//
// All error types implement [errors.Unwrap].
package looper
