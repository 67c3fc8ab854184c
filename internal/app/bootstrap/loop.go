package bootstrap

import (
	"context"
	"time"
)

// tickerLoop drives a worker tick on a fixed interval. Ticks run strictly
// sequentially: the next tick cannot begin while the previous one is still
// executing. Cancelling the loop context only stops scheduling; the in-flight
// tick keeps an uncancelled context and is allowed to finish, so a graceful
// stop never aborts a remote call mid-flight or burns a retry attempt.
type tickerLoop struct {
	Interval     time.Duration
	InitialDelay time.Duration
	RunOnStart   bool
	Tick         func(context.Context) error
	OnError      func(error)
}

func (l tickerLoop) Run(ctx context.Context) error {
	if l.InitialDelay > 0 {
		delay := time.NewTimer(l.InitialDelay)
		select {
		case <-ctx.Done():
			delay.Stop()
			return ctx.Err()
		case <-delay.C:
		}
	}

	if l.RunOnStart {
		l.runTick(ctx)
	}

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.runTick(ctx)
		}
	}
}

func (l tickerLoop) runTick(ctx context.Context) {
	if err := l.Tick(context.WithoutCancel(ctx)); err != nil && l.OnError != nil {
		l.OnError(err)
	}
}
