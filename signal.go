package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// shutdownContext returns a context that is canceled on the first
// SIGINT/SIGTERM and exits the process on the second. inFlight names the
// uploads a signal interrupts; each one stops after its current chunk and
// leaves a partial file on the server.
func shutdownContext(parent context.Context, logger *slog.Logger, inFlight func() []string) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case sig := <-sigCh:
			logger.Warn("interrupted, stopping uploads after their current chunk",
				slog.String("signal", sig.String()),
				slog.Any("files", inFlight()),
			)
			cancel()
		case <-ctx.Done():
			return
		}

		select {
		case sig := <-sigCh:
			logger.Warn("interrupted again, abandoning partial uploads",
				slog.String("signal", sig.String()),
				slog.Any("files", inFlight()),
			)
			os.Exit(1)
		case <-parent.Done():
			return
		}
	}()

	return ctx
}
