package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then after each interval until ctx ends.
// interval is re-read before every wait so config reloads take effect
// without a restart. Runs never overlap.
func Every(ctx context.Context, interval func() time.Duration, name string, task Task) {
	for {
		if err := task(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[%s] level=error msg=\"task failed\" err=%q", name, err)
		}

		d := interval()
		if d <= 0 {
			d = time.Minute
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}
