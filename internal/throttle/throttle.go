// Package throttle gates outbound RPC calls behind a token bucket so bursts
// of bulk operations stay under the upstream service's abuse heuristics.
package throttle

import (
	"context"

	"golang.org/x/time/rate"
)

const (
	// Burst is the bucket capacity: at most this many calls back-to-back.
	Burst = 10
	// PerSecond is the sustained refill rate.
	PerSecond = 10
)

// Limiter suspends callers until a token is available. Callers are never
// rejected, only delayed.
type Limiter struct {
	bucket *rate.Limiter
}

// New returns a limiter with the default capacity and refill rate.
func New() *Limiter {
	return &Limiter{bucket: rate.NewLimiter(rate.Limit(PerSecond), Burst)}
}

// Acquire blocks until one token is available or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	return l.bucket.Wait(ctx)
}
