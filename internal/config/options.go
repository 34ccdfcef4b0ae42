package config

import (
	"fmt"
	"log/slog"
	"time"
)

const (
	DefaultInitialDelay   = 0 * time.Millisecond
	DefaultTaskInterval   = 5000 * time.Millisecond
	DefaultConnectTimeout = 10 * time.Second
)

// Options is the resolved publisher configuration. It is produced once by
// Resolve and treated as read-only afterwards; pass it by value.
type Options struct {
	ClientID       string
	BrokerURL      string
	Topic          string
	InitialDelay   time.Duration
	TaskInterval   time.Duration
	ConnectTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		InitialDelay:   DefaultInitialDelay,
		TaskInterval:   DefaultTaskInterval,
		ConnectTimeout: DefaultConnectTimeout,
	}
}

// PublishTopic is the topic every envelope of this client is published on.
func (o Options) PublishTopic() string {
	return fmt.Sprintf("/%s/%s", o.Topic, o.ClientID)
}

func (o Options) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("client_id", o.ClientID),
		slog.String("broker_url", o.BrokerURL),
		slog.String("topic", o.Topic),
		slog.Duration("initial_delay", o.InitialDelay),
		slog.Duration("task_interval", o.TaskInterval),
		slog.Duration("connect_timeout", o.ConnectTimeout),
	)
}
