// Package ratelimit paces primary generation across workers.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter caps how many primaries per second the whole run may start.
// One Limiter is shared by every worker of a split run; a nil *Limiter
// never waits, so the uncapped path stays allocation-free.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter allowing perSec primaries per second. perSec <= 0
// returns nil (no pacing).
func New(perSec int) *Limiter {
	if perSec <= 0 {
		return nil
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSec), perSec)}
}

// Wait blocks until the next primary may start or ctx is canceled.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}
