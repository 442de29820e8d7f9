package contract

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer enforces the delay between remote calls and the cooldown after a failure.
type Pacer struct {
	RequestDelay    time.Duration
	FailureCooldown time.Duration
	Sleep           SleepFunc
}

// NewPacer returns a Pacer that sleeps on the wall clock.
func NewPacer(requestDelay, failureCooldown time.Duration) *Pacer {
	return &Pacer{
		RequestDelay:    requestDelay,
		FailureCooldown: failureCooldown,
		Sleep:           ContextSleep,
	}
}

// AfterRequest waits out the delay that must follow every remote call.
func (p *Pacer) AfterRequest(ctx context.Context) error {
	return p.wait(ctx, p.RequestDelay)
}

// AfterFailure waits out the cooldown that follows a failed sensor.
func (p *Pacer) AfterFailure(ctx context.Context) error {
	return p.wait(ctx, p.FailureCooldown)
}

func (p *Pacer) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}
	return sleep(ctx, d)
}

// ContextSleep sleeps for d and returns early with ctx.Err() on cancellation.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
