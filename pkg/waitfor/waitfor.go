package waitfor

import (
	"context"
	"errors"
	"math"
	"time"
)

var ErrTimeout = errors.New("condition not met before timeout")

// Backoff describes a bounded exponential polling schedule.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Timeout    time.Duration
}

func DefaultBackoff(timeout time.Duration) Backoff {
	return Backoff{
		Initial:    200 * time.Millisecond,
		Max:        2 * time.Second,
		Multiplier: 2,
		Timeout:    timeout,
	}
}

// Delay returns the wait before poll number attempt (1-based).
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	mult := b.Multiplier
	if mult < 1 {
		mult = 2
	}

	// Compared before conversion: large exponents overflow time.Duration.
	d := float64(b.Initial) * math.Pow(mult, float64(attempt-1))

	switch {
	case b.Max > 0 && d >= float64(b.Max):
		return b.Max
	case d >= math.MaxInt64:
		return time.Duration(math.MaxInt64)
	}

	return time.Duration(d)
}

// Condition is polled until it returns true, an error, or the timeout elapses.
type Condition func(ctx context.Context) (bool, error)

func Until(ctx context.Context, b Backoff, cond Condition) error {
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	for attempt := 1; ; attempt++ {
		ok, err := cond(ctx)
		if err != nil {
			return err
		}

		if ok {
			return nil
		}

		timer := time.NewTimer(b.Delay(attempt))

		select {
		case <-ctx.Done():
			timer.Stop()

			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrTimeout
			}

			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Sleep waits d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
