// Package poll runs fixed-interval refresh tasks tied to a context so a
// torn-down view cannot leak its timer.
package poll

import (
	"context"
	"time"
)

// Run invokes fn immediately and then once per interval until ctx is
// cancelled. It blocks; callers that need it in the background start it
// in a goroutine and cancel the context on teardown.
func Run(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}
