package broker

import (
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
)

// QoSAtMostOnce sends without acknowledgment tracking.
const QoSAtMostOnce byte = 0

// disconnectQuiesce is how long Disconnect lets in-flight work drain, in ms.
const disconnectQuiesce uint = 250

// Client is the part of the MQTT client the publisher depends on. The paho
// mqtt.Client satisfies it.
type Client interface {
	Connect() mqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// ClientOption adjusts the paho options built by NewClient.
type ClientOption func(*mqtt.ClientOptions)

// WithConnectRetry makes the client retry a failed initial connect every
// interval. The connect token then only completes once connected, or with an
// error when the attempt is aborted by Disconnect.
func WithConnectRetry(interval time.Duration) ClientOption {
	return func(o *mqtt.ClientOptions) {
		o.SetConnectRetry(true)
		o.SetConnectRetryInterval(interval)
	}
}

// NewClient configures a paho client for opts: automatic reconnect, a clean
// session on every connect and the configured connect timeout. It does not
// connect.
func NewClient(log *slog.Logger, opts config.Options, options ...ClientOption) mqtt.Client {
	log = log.With(slog.String("broker_url", opts.BrokerURL), slog.String("client_id", opts.ClientID))

	o := mqtt.NewClientOptions()
	o.AddBroker(opts.BrokerURL)
	o.SetClientID(opts.ClientID)
	o.SetAutoReconnect(true)
	o.SetConnectTimeout(opts.ConnectTimeout)
	o.SetCleanSession(true)
	o.SetOrderMatters(false)

	o.SetOnConnectHandler(func(mqtt.Client) {
		log.Info("connected to MQTT broker")
	})
	o.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn("connection to MQTT broker lost", sl.Err(err))
	})
	o.SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
		log.Info("reconnecting to MQTT broker")
	})

	for _, apply := range options {
		apply(o)
	}

	return mqtt.NewClient(o)
}
