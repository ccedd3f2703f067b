package llm

import (
	"context"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryPolicy bounds the attempts made against a flaky provider. Sleep is
// injectable for tests; the zero value means real time.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Sleep           func(context.Context, time.Duration) error
}

// DefaultRetryPolicy: three attempts with exponential waits of 2s then 4s,
// capped at 10s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 2 * time.Second,
		MaxInterval:     10 * time.Second,
	}
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do runs op under the policy. Only taxonomy-retryable failures earn another
// attempt; permanent errors and context cancellation return immediately.
// After the final attempt the last error is returned as-is.
func (p RetryPolicy) Do(ctx context.Context, name string, op func(context.Context) error) error {
	bo := &backoff.ExponentialBackOff{
		InitialInterval:     p.InitialInterval,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         p.MaxInterval,
	}
	bo.Reset()

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			log.Printf("[llm] %s failed permanently: %v", name, err)
			return err
		}
		if attempt == p.MaxAttempts {
			break
		}
		wait := bo.NextBackOff()
		log.Printf("[llm] %s attempt %d/%d failed, retrying in %s: %v",
			name, attempt, p.MaxAttempts, wait, err)
		if serr := p.sleep(ctx, wait); serr != nil {
			return serr
		}
	}
	log.Printf("[llm] %s failed after %d attempts: %v", name, p.MaxAttempts, err)
	return err
}
