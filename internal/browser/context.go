// internal/browser/context.go
package browser

import (
	"context"
)

// CombineContext returns a context derived from ctx1, so it carries the CDP
// target values, that is also canceled when ctx2 is done.
func CombineContext(ctx1, ctx2 context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(ctx1)
	if deadline, ok := ctx2.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		combinedCtx, cancelDeadline = context.WithDeadline(combinedCtx, deadline)
		prev := cancel
		cancel = func() {
			cancelDeadline()
			prev()
		}
	}

	go func() {
		select {
		case <-ctx2.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// Detach returns a context with ctx's values that is never canceled by ctx.
// The browser process is rooted here so that only Session.Close ends it.
func Detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
