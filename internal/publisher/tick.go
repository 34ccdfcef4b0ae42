package publisher

import (
	"context"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/kpipublisher/internal/broker"
	"github.com/speedwagon-io/kpipublisher/internal/collector"
	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
	"github.com/speedwagon-io/kpipublisher/internal/metrics"
)

// tick is the unit run by the scheduler: sample once and publish the
// envelope. Every failure is logged and ends the tick; none of them stop the
// schedule.
type tick struct {
	log      *slog.Logger
	clientID string
	topic    string
	source   collector.Source
	client   broker.Client
	metrics  *metrics.Metrics
	now      func() time.Time

	// watchTimeout bounds how long a publish token is observed for errors.
	watchTimeout time.Duration
}

func (t *tick) Run(ctx context.Context) {
	begin := time.Now()
	defer func() {
		t.metrics.TickDuration.Observe(time.Since(begin).Seconds())
	}()

	if !t.client.IsConnected() {
		t.log.Debug("not connected to MQTT broker, skipping tick")
		t.metrics.Tick(metrics.ResultNotConnected)
		return
	}

	env, ok, err := collector.CollectAndEnvelope(ctx, t.clientID, t.source, t.now)
	if !ok {
		if err != nil {
			t.log.Warn("failed to collect KPIs, no message will be sent", sl.Err(err))
		} else {
			t.log.Warn("no KPIs were read, no message will be sent")
		}
		t.metrics.Tick(metrics.ResultSkipped)
		return
	}

	result := metrics.ResultPublished
	payload, err := env.ToJSON()
	if err != nil {
		t.log.Warn("could not serialize message, publishing empty payload",
			slog.Int("kpis", len(env.Kpis)),
			sl.Err(err),
		)
		payload = []byte{}
		result = metrics.ResultEncodeFailed
	}

	token := t.client.Publish(t.topic, broker.QoSAtMostOnce, true, payload)
	t.metrics.Tick(result)

	t.log.Debug("publishing message",
		slog.String("topic", t.topic),
		slog.Int("kpis", len(env.Kpis)),
		slog.Int64("unix_timestamp", env.UnixTimestamp),
	)

	go t.watch(token)
}

// watch reports a failed publish without holding up the tick.
func (t *tick) watch(token mqtt.Token) {
	if !token.WaitTimeout(t.watchTimeout) {
		return
	}
	if err := token.Error(); err != nil {
		t.log.Warn("message could not be published", slog.String("topic", t.topic), sl.Err(err))
		t.metrics.PublishFailures.Inc()
	}
}
