package bulk

import (
	"context"
	"time"
)

// PollState is one step of a readiness poll.
type PollState int

const (
	Polling PollState = iota
	Ready
	TimedOut
)

// Poller drives a readiness probe through an explicit state machine:
// Polling(attempt) advances to Ready, TimedOut, or Polling(attempt+1).
// Sleep is injectable so the machine is testable without real timers.
type Poller struct {
	Probe       func(ctx context.Context) (bool, error)
	MaxAttempts int
	Interval    time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
}

func (p *Poller) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return 30
	}
	return p.MaxAttempts
}

func (p *Poller) interval() time.Duration {
	if p.Interval <= 0 {
		return time.Second
	}
	return p.Interval
}

func (p *Poller) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// step advances the machine by one probe. Probe errors keep polling; the
// upstream format drifts and a failed probe is not evidence of readiness
// either way.
func (p *Poller) step(ctx context.Context, attempt int) PollState {
	if attempt >= p.maxAttempts() {
		return TimedOut
	}
	if ready, err := p.Probe(ctx); err == nil && ready {
		return Ready
	}
	return Polling
}

// Run polls until Ready or TimedOut and reports readiness. Timing out is
// an ordinary outcome, not an error.
func (p *Poller) Run(ctx context.Context) bool {
	for attempt := 0; ; attempt++ {
		switch p.step(ctx, attempt) {
		case Ready:
			return true
		case TimedOut:
			return false
		}
		if err := p.sleep(ctx, p.interval()); err != nil {
			return false
		}
	}
}
