package service

import (
	"context"
	"time"
)

// RetryPolicy describes exponential backoff for flaky external calls.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
	Factor   int
}

var DefaultRetry = RetryPolicy{Attempts: 3, Delay: 500 * time.Millisecond, Factor: 2}

// Retry runs fn up to p.Attempts times, doubling the delay between tries.
// It returns the last error, or the context error if cancelled while waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error) error {
	if p.Attempts <= 0 {
		p.Attempts = 1
	}
	delay := p.Delay
	var err error
	for attempt := 0; attempt < p.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= time.Duration(p.Factor)
		}
		if err = fn(ctx); err == nil {
			return nil
		}
	}
	return err
}
