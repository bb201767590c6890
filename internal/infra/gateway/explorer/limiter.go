package explorer

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum spacing between the end of one request and the
// start of the next. It is owned by a single Client and is safe for concurrent use.
type Limiter struct {
	limiter *rate.Limiter
	delay   time.Duration
}

// NewLimiter creates a limiter that spaces requests by delay.
// A zero or negative delay disables pacing.
func NewLimiter(delay time.Duration) *Limiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, 1),
		delay:   delay,
	}
}

// Wait blocks until the last finished request is at least delay in the past, or ctx is done.
// It does not take the slot; Done does.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.delay <= 0 {
		return nil
	}

	for {
		tokens := l.limiter.Tokens()
		if tokens >= 1 {
			return nil
		}

		timer := time.NewTimer(time.Duration((1 - tokens) * float64(l.delay)))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Done marks a request as finished and starts the next spacing window.
func (l *Limiter) Done() {
	if l.delay <= 0 {
		return
	}
	l.limiter.Reserve()
}
