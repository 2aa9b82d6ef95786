package async

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/taskbridge-dev/taskbridge/pkg/utils/errutil"
	"github.com/taskbridge-dev/taskbridge/pkg/utils/logging"
)

// Dispatch executes a handler function asynchronously in a new goroutine.
// It creates a background context (detached from the request lifecycle,
// since the caller has already responded) and handles errors and panics.
func Dispatch(ctx context.Context, handler func(ctx context.Context) error) {
	// Preserve the request logger across the detach
	bgCtx := logging.With(context.Background(), logging.From(ctx))

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.From(bgCtx).Error("panic in async handler", "panic", r)
			}
		}()

		if err := handler(bgCtx); err != nil {
			errutil.Report(bgCtx, goerr.Wrap(err, "async handler failed"), "async handler failed")
		}
	}()
}
