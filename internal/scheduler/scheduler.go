// Package scheduler runs a unit of work periodically on one goroutine.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

var ErrAlreadyStarted = errors.New("scheduler already started")

// Unit is one scheduled invocation. ctx is cancelled when a shutdown gives up
// waiting for the invocation.
type Unit func(ctx context.Context)

// Scheduler invokes its unit first after initialDelay and then every
// interval, measured from the start of the previous invocation. An invocation
// that overruns the interval is followed immediately by the next one.
// Invocations never overlap.
type Scheduler struct {
	log          *slog.Logger
	unit         Unit
	initialDelay time.Duration
	interval     time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	cancel  context.CancelFunc

	inFlight atomic.Bool
}

func New(log *slog.Logger, unit Unit, initialDelay, interval time.Duration) *Scheduler {
	return &Scheduler{
		log:          log,
		unit:         unit,
		initialDelay: initialDelay,
		interval:     interval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

// Start launches the background goroutine. A scheduler can only be started
// once.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	if s.interval <= 0 {
		return fmt.Errorf("invalid interval %s: must be positive", s.interval)
	}
	s.started = true

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.log.Info("starting scheduler",
		slog.Duration("initial_delay", s.initialDelay),
		slog.Duration("interval", s.interval),
	)

	go s.loop(ctx)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.doneCh)

	timer := time.NewTimer(s.initialDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C:
		}

		// stopCh wins over a timer that fired at the same time.
		select {
		case <-s.stopCh:
			return
		default:
		}

		start := time.Now()
		s.invoke(ctx)

		wait := s.interval - time.Since(start)
		if wait < 0 {
			s.log.Debug("invocation overran interval", slog.Duration("overrun", -wait))
			wait = 0
		}
		timer.Reset(wait)
	}
}

func (s *Scheduler) invoke(ctx context.Context) {
	s.inFlight.Store(true)
	defer s.inFlight.Store(false)

	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("scheduled invocation panicked", slog.Any("panic", r))
		}
	}()

	s.unit(ctx)
}

// Stop prevents further invocations and waits up to grace for the one in
// flight. If it is still running after grace its context is cancelled and
// Stop returns false without waiting further. Stopping an idle or never
// started scheduler returns true at once.
func (s *Scheduler) Stop(grace time.Duration) bool {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return true
	}
	if s.stopped {
		s.mu.Unlock()
		select {
		case <-s.doneCh:
			return true
		default:
			return false
		}
	}
	s.stopped = true
	close(s.stopCh)
	s.mu.Unlock()

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-s.doneCh:
		s.cancel()
		s.log.Info("scheduler stopped")
		return true
	case <-timer.C:
		s.cancel()
		s.log.Info("in-flight invocation did not finish within grace period, cancelled it",
			slog.Duration("grace", grace),
		)
		return false
	}
}

// Running reports whether the background goroutine is still alive.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return false
	}
	select {
	case <-s.doneCh:
		return false
	default:
		return true
	}
}

// InFlight reports whether an invocation is executing right now.
func (s *Scheduler) InFlight() bool {
	return s.inFlight.Load()
}
