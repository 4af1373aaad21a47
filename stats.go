package looper

import (
	"sync"
	"time"
)

// Stats is an Observer aggregating wake and poll latency statistics.
//
// Wake bookkeeping is inherently racy with respect to the wake channel
// itself: a signal may be consumed before OnWake records it, in which case
// the awoken is counted as spurious and the signal is attributed to the next
// cycle. The figures are diagnostic only.
//
// Thread Safety: all methods are safe for concurrent use.
type Stats struct {
	pendingSince time.Time
	wakeLatency  *quantiles
	pollLatency  *quantiles

	mu sync.Mutex

	pendingWakes   int
	wakeCycles     int
	wakeCountSum   int
	spurious       int
	polls          int
	zeroPolls      int
	zeroPollSum    time.Duration
	timeoutPolls   int
	timeoutOverrun time.Duration
	errorPolls     int
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	// WakeLatencyP50, P90 and P99 estimate the delay between the first
	// pending wake signal and the polling goroutine consuming it.
	WakeLatencyP50  time.Duration
	WakeLatencyP90  time.Duration
	WakeLatencyP99  time.Duration
	WakeLatencyMax  time.Duration
	WakeLatencyMean time.Duration

	// ZeroTimeoutMean is the mean duration of non-blocking waits.
	ZeroTimeoutMean time.Duration

	// TimeoutOverrunMean is the mean time by which timed-out waits exceeded
	// their requested timeout.
	TimeoutOverrunMean time.Duration

	// PollLatencyP99 estimates the 99th percentile of every wait.
	PollLatencyP99 time.Duration

	// WakesPerCycle is the mean number of wake signals collapsed into each
	// observed wake.
	WakesPerCycle float64

	WakeCycles       int
	SpuriousWakes    int
	Polls            int
	ZeroTimeoutPolls int
	TimeoutPolls     int
	ErrorPolls       int
}

var _ Observer = (*Stats)(nil)

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{
		wakeLatency: newQuantiles(0.50, 0.90, 0.99),
		pollLatency: newQuantiles(0.99),
	}
}

// OnWake implements Observer.
func (s *Stats) OnWake() {
	s.mu.Lock()
	if s.pendingWakes == 0 {
		s.pendingSince = time.Now()
	}
	s.pendingWakes++
	s.mu.Unlock()
}

// OnAwoken implements Observer.
func (s *Stats) OnAwoken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingWakes == 0 {
		s.spurious++
		return
	}
	s.wakeCycles++
	s.wakeCountSum += s.pendingWakes
	s.wakeLatency.add(float64(time.Since(s.pendingSince)))
	s.pendingWakes = 0
	s.pendingSince = time.Time{}
}

// OnPoll implements Observer.
func (s *Stats) OnPoll(timeoutMillis, result int, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polls++
	s.pollLatency.add(float64(elapsed))
	switch {
	case result == PollError:
		s.errorPolls++
	case timeoutMillis == 0:
		s.zeroPolls++
		s.zeroPollSum += elapsed
	case timeoutMillis > 0 && result == PollTimeout:
		s.timeoutPolls++
		s.timeoutOverrun += elapsed - time.Duration(timeoutMillis)*time.Millisecond
	}
}

// Snapshot returns the current statistics.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := StatsSnapshot{
		WakeLatencyP50:   time.Duration(s.wakeLatency.quantile(0)),
		WakeLatencyP90:   time.Duration(s.wakeLatency.quantile(1)),
		WakeLatencyP99:   time.Duration(s.wakeLatency.quantile(2)),
		WakeLatencyMax:   time.Duration(s.wakeLatency.maximum()),
		WakeLatencyMean:  time.Duration(s.wakeLatency.mean()),
		PollLatencyP99:   time.Duration(s.pollLatency.quantile(0)),
		WakeCycles:       s.wakeCycles,
		SpuriousWakes:    s.spurious,
		Polls:            s.polls,
		ZeroTimeoutPolls: s.zeroPolls,
		TimeoutPolls:     s.timeoutPolls,
		ErrorPolls:       s.errorPolls,
	}
	if s.wakeCycles != 0 {
		snap.WakesPerCycle = float64(s.wakeCountSum) / float64(s.wakeCycles)
	}
	if s.zeroPolls != 0 {
		snap.ZeroTimeoutMean = s.zeroPollSum / time.Duration(s.zeroPolls)
	}
	if s.timeoutPolls != 0 {
		snap.TimeoutOverrunMean = s.timeoutOverrun / time.Duration(s.timeoutPolls)
	}
	return snap
}
