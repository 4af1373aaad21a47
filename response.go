package looper

import (
	"github.com/eapache/queue"
)

// Response is a ready fd paired with the registration that was current when
// its readiness was captured. Removing or replacing the registration later
// does not affect a Response already queued.
type Response struct {
	Registration Registration
	Events       Events
}

// Output carries the details of a ready fd registered without a callback,
// as returned alongside its ident by PollOnce and PollAll.
type Output struct {
	Data   any
	FD     int
	Events Events
}

// responseQueue holds the responses of the latest wait, in backend order.
// Only the polling goroutine touches it.
type responseQueue struct {
	q *queue.Queue
}

func newResponseQueue() *responseQueue {
	return &responseQueue{q: queue.New()}
}

func (r *responseQueue) push(resp Response) {
	r.q.Add(resp)
}

// pop removes and returns the oldest response.
func (r *responseQueue) pop() (Response, bool) {
	if r.q.Length() == 0 {
		return Response{}, false
	}
	return r.q.Remove().(Response), true
}

// at returns the i-th oldest response without removing it.
func (r *responseQueue) at(i int) Response {
	return r.q.Get(i).(Response)
}

func (r *responseQueue) len() int {
	return r.q.Length()
}

func (r *responseQueue) clear() {
	for r.q.Length() != 0 {
		r.q.Remove()
	}
}
