package main

import (
	"context"
	"os/signal"
)

// notifyContext returns a context cancelled on the first shutdown signal.
// Cancelling a render kills its engine's process group.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals...)
}
