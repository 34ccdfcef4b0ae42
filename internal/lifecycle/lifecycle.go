// Package lifecycle ties process termination signals to a bounded shutdown.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// Stopper stops accepting work and waits up to grace for work in flight. It
// reports false when it had to force-terminate.
type Stopper interface {
	Stop(grace time.Duration) bool
}

// GracePeriod is 10% longer than one interval so a typical tick can finish.
func GracePeriod(interval time.Duration) time.Duration {
	return interval * 11 / 10
}

// SignalContext returns a context cancelled on the first of signals, SIGINT
// and SIGTERM by default. The returned stop function releases the handler.
func SignalContext(parent context.Context, log *slog.Logger, signals ...os.Signal) (context.Context, context.CancelFunc) {
	if len(signals) == 0 {
		signals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}
	}

	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)

	go func() {
		select {
		case sig := <-sigCh:
			log.Info("received signal, shutting down", slog.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// Shutdown stops s with the given grace period. Running out of grace is
// expected under load and only logged.
func Shutdown(log *slog.Logger, s Stopper, grace time.Duration) bool {
	log.Info("shutting down", slog.Duration("grace", grace))

	begin := time.Now()
	if s.Stop(grace) {
		log.Info("shutdown complete", slog.Duration("took", time.Since(begin)))
		return true
	}

	log.Info("shutdown grace period elapsed, in-flight work was terminated", slog.Duration("grace", grace))
	return false
}
