// Package publisher wires the broker connection, the KPI source and the
// scheduler into one KPI publisher.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/speedwagon-io/kpipublisher/internal/broker"
	"github.com/speedwagon-io/kpipublisher/internal/collector"
	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
	"github.com/speedwagon-io/kpipublisher/internal/lifecycle"
	"github.com/speedwagon-io/kpipublisher/internal/metrics"
	"github.com/speedwagon-io/kpipublisher/internal/scheduler"
)

var ErrAlreadyStarted = errors.New("publisher already started")

// Publisher periodically publishes the KPIs of one client. Callers must run
// at most one Publisher per process and client ID.
type Publisher struct {
	log     *slog.Logger
	opts    config.Options
	source  collector.Source
	conn    *broker.Manager
	client  broker.Client
	metrics *metrics.Metrics
	now     func() time.Time

	mu        sync.Mutex
	started   bool
	stopped   bool
	cancel    context.CancelFunc
	sched     *scheduler.Scheduler
	readyCh   chan struct{}
	connectWg sync.WaitGroup
}

type Option func(*Publisher)

// WithRegisterer registers the publisher metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Publisher) {
		p.metrics = metrics.New(reg, p.conn.Connected)
	}
}

// WithClock replaces the clock used to timestamp envelopes.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

func New(log *slog.Logger, opts config.Options, client broker.Client, source collector.Source, options ...Option) *Publisher {
	log = log.With(slog.String("client_id", opts.ClientID))

	p := &Publisher{
		log:     log,
		opts:    opts,
		source:  source,
		client:  client,
		conn:    broker.NewManager(log.With(slog.String("component", "broker")), client),
		now:     time.Now,
		readyCh: make(chan struct{}),
	}
	for _, o := range options {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = metrics.Nop()
	}

	return p
}

// Start connects to the broker without blocking. The scheduler is started
// once the connection succeeds; a failed connect is logged and nothing is
// published.
func (p *Publisher) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return ErrAlreadyStarted
	}
	p.started = true

	p.log.Info("starting MQTT KPI publisher",
		slog.Any("options", p.opts),
		slog.String("source", collector.Name(p.source)),
	)

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	outcome := p.conn.Connect(ctx)

	p.connectWg.Add(1)
	go p.awaitConnect(outcome)

	return nil
}

func (p *Publisher) awaitConnect(outcome <-chan broker.Outcome) {
	defer p.connectWg.Done()

	o := <-outcome
	if o.Err != nil {
		p.log.Error("failed to connect, no KPIs will be published",
			slog.String("broker_url", p.opts.BrokerURL),
			sl.Err(o.Err),
		)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	t := &tick{
		log:          p.log.With(slog.String("component", "tick")),
		clientID:     p.opts.ClientID,
		topic:        p.opts.PublishTopic(),
		source:       p.source,
		client:       o.Client,
		metrics:      p.metrics,
		now:          p.now,
		watchTimeout: p.opts.TaskInterval,
	}

	p.sched = scheduler.New(p.log.With(slog.String("component", "scheduler")), t.Run, p.opts.InitialDelay, p.opts.TaskInterval)
	if err := p.sched.Start(); err != nil {
		p.log.Error("failed to start scheduler", sl.Err(err))
		return
	}
	close(p.readyCh)
}

// Stop halts the schedule, waits up to 1.1 task intervals for a running tick
// and disconnects from the broker. It returns false if the running tick had
// to be terminated.
func (p *Publisher) Stop() bool {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.mu.Unlock()
		return true
	}
	p.stopped = true
	sched := p.sched
	p.mu.Unlock()

	p.log.Info("shutting down MQTT KPI publisher")

	p.cancel()
	p.connectWg.Wait()

	ok := true
	if sched != nil {
		if sched.InFlight() {
			p.log.Info("waiting for the running tick to finish")
		}
		ok = lifecycle.Shutdown(p.log, sched, lifecycle.GracePeriod(p.opts.TaskInterval))
	}
	p.conn.Disconnect()

	p.log.Info("MQTT KPI publisher was shut down")
	return ok
}

// Run starts the publisher and stops it once ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	p.Stop()
	return nil
}

// Ready is closed once the broker connection succeeded and the scheduler runs.
func (p *Publisher) Ready() <-chan struct{} {
	return p.readyCh
}

func (p *Publisher) State() broker.State {
	return p.conn.State()
}

// Scheduling reports whether ticks are currently being scheduled.
func (p *Publisher) Scheduling() bool {
	p.mu.Lock()
	sched := p.sched
	p.mu.Unlock()
	return sched != nil && sched.Running()
}
