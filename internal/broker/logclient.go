package broker

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// LogClient logs messages instead of publishing them (dry-run mode).
type LogClient struct {
	log       *slog.Logger
	connected atomic.Bool
}

var _ Client = (*LogClient)(nil)

func NewLogClient(log *slog.Logger) *LogClient {
	return &LogClient{log: log}
}

func (c *LogClient) Connect() mqtt.Token {
	c.connected.Store(true)
	return CompletedToken(nil)
}

func (c *LogClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *LogClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	if !c.IsConnected() {
		return CompletedToken(mqtt.ErrNotConnected)
	}

	c.log.Info("PUBLISH",
		slog.String("topic", topic),
		slog.Int("qos", int(qos)),
		slog.Bool("retained", retained),
		slog.String("payload", payloadString(payload)),
	)

	return CompletedToken(nil)
}

func (c *LogClient) Disconnect(quiesce uint) {
	c.connected.Store(false)
}

func payloadString(payload interface{}) string {
	switch p := payload.(type) {
	case []byte:
		return string(p)
	case string:
		return p
	default:
		return fmt.Sprintf("%v", p)
	}
}
