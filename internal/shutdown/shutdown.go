package shutdown

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/go-sod/regime/internal/logging"
)

// New returns a context carrying the default logger that is canceled on
// SIGINT or SIGTERM.
func New() (context.Context, func()) {
	ctx := logging.WithLogger(context.Background(), logging.DefaultLogger())
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}
