package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"

	"github.com/speedwagon-io/kpipublisher/internal/broker"
	"github.com/speedwagon-io/kpipublisher/internal/collector"
	"github.com/speedwagon-io/kpipublisher/internal/collector/adapters"
	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/health"
	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
	"github.com/speedwagon-io/kpipublisher/internal/lifecycle"
	"github.com/speedwagon-io/kpipublisher/internal/publisher"
)

func main() {
	configPath := pflag.String("config", "", "path to config file")
	dryRun := pflag.Bool("dry-run", false, "log publishes instead of sending them to the broker")
	pflag.Parse()

	cfg := config.MustLoad(*configPath)
	if *dryRun {
		cfg.DryRun = true
	}

	log := sl.SetupLogger(cfg.Log.Level, cfg.Log.Format).
		With(slog.String("instance_id", uuid.NewString()))

	log.Info("starting KPI publisher",
		slog.String("env", cfg.Env),
		slog.Bool("dry_run", cfg.DryRun),
	)

	env, err := config.FromEnv()
	if err != nil {
		log.Error("failed to read environment", sl.Err(err))
		os.Exit(1)
	}

	opts, err := config.Resolve(env, cfg.Publisher)
	if err != nil {
		log.Error("invalid publisher options", sl.Err(err))
		os.Exit(1)
	}

	src, closeSource, err := newSource(log, cfg.Source)
	if err != nil {
		log.Error("failed to create KPI source", sl.Err(err))
		os.Exit(1)
	}

	var client broker.Client
	if cfg.DryRun {
		client = broker.NewLogClient(log.With(slog.String("component", "dry-run")))
		log.Info("dry-run mode: KPIs will be logged instead of published")
	} else {
		var clientOpts []broker.ClientOption
		if cfg.Broker.ConnectRetry {
			clientOpts = append(clientOpts, broker.WithConnectRetry(cfg.Broker.ConnectRetryInterval))
			log.Info("initial connect will be retried",
				slog.Duration("interval", cfg.Broker.ConnectRetryInterval),
			)
		}
		client = broker.NewClient(log.With(slog.String("component", "mqtt")), opts, clientOpts...)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p := publisher.New(log, opts, client, src, publisher.WithRegisterer(reg))

	var healthServer *health.Server
	if cfg.Health.Enabled {
		connected := func() bool { return p.State() == broker.Connected }
		healthServer = health.NewServer(log, cfg.Health.Address, connected, reg)
		healthServer.AddChecker(health.NewBrokerHealthChecker(connected, func() string { return p.State().String() }))
		healthServer.AddChecker(health.NewSchedulerHealthChecker(p.Scheduling))

		if err := healthServer.Start(); err != nil {
			log.Error("failed to start health server", sl.Err(err))
			os.Exit(1)
		}
	}

	ctx, stop := lifecycle.SignalContext(context.Background(), log)
	defer stop()

	go func() {
		select {
		case <-p.Ready():
			log.Info("publishing KPIs", slog.String("topic", opts.PublishTopic()))
		case <-ctx.Done():
		}
	}()

	if err := p.Run(ctx); err != nil {
		log.Error("publisher failed", sl.Err(err))
	}

	if healthServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := healthServer.Stop(shutdownCtx); err != nil {
			log.Error("failed to stop health server", sl.Err(err))
		}
		cancel()
	}

	if err := closeSource(); err != nil {
		log.Error("failed to close KPI source", sl.Err(err))
	}

	log.Info("publisher stopped")
}

func newSource(log *slog.Logger, cfg config.SourceConfig) (collector.Source, func() error, error) {
	switch cfg.Adapter {
	case "static", "":
		src, err := adapters.StaticSourceFromConfig(cfg.Static)
		if err != nil {
			return nil, nil, err
		}
		return src, func() error { return nil }, nil
	case "http":
		if cfg.URL == "" {
			return nil, nil, fmt.Errorf("source url is required for the http adapter")
		}
		fields, err := adapters.FieldsFromConfig(cfg.Fields)
		if err != nil {
			return nil, nil, err
		}
		src := adapters.NewHTTPSource(log.With(slog.String("component", "source")), cfg.URL, cfg.Timeout, fields)
		return src, src.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown source adapter: %s", cfg.Adapter)
	}
}
