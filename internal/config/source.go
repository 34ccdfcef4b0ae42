package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvBrokerURL      = "MQTT_MSG_BROKER_URL"
	EnvClientID       = "MQTT_CLIENT_ID"
	EnvTopic          = "MQTT_TOPIC"
	EnvConnectTimeout = "MQTT_CONNECTION_TIMEOUT"
	EnvTaskInterval   = "TASK_INTERVAL"
	EnvInitialDelay   = "INITIAL_TASK_DELAY"
)

// Source is one candidate set of publisher options. A nil field was not
// supplied by that source.
type Source struct {
	ClientID       *string        `yaml:"client_id"`
	BrokerURL      *string        `yaml:"broker_url"`
	Topic          *string        `yaml:"topic"`
	InitialDelay   *time.Duration `yaml:"initial_delay"`
	TaskInterval   *time.Duration `yaml:"task_interval"`
	ConnectTimeout *time.Duration `yaml:"connect_timeout"`
}

// Builder accumulates a programmatic Source.
type Builder struct {
	src Source
}

// NewBuilder starts a Source with the three required options. Empty strings
// are treated as not supplied.
func NewBuilder(clientID, brokerURL, topic string) *Builder {
	return &Builder{src: Source{
		ClientID:  nonEmpty(clientID),
		BrokerURL: nonEmpty(brokerURL),
		Topic:     nonEmpty(topic),
	}}
}

func (b *Builder) InitialDelay(d time.Duration) *Builder {
	b.src.InitialDelay = &d
	return b
}

func (b *Builder) TaskInterval(d time.Duration) *Builder {
	b.src.TaskInterval = &d
	return b
}

func (b *Builder) ConnectTimeout(d time.Duration) *Builder {
	b.src.ConnectTimeout = &d
	return b
}

// Build returns a copy, so the builder can keep being used.
func (b *Builder) Build() *Source {
	src := b.src
	return &src
}

type envVars struct {
	BrokerURL      string `env:"MQTT_MSG_BROKER_URL"`
	ClientID       string `env:"MQTT_CLIENT_ID"`
	Topic          string `env:"MQTT_TOPIC"`
	ConnectTimeout string `env:"MQTT_CONNECTION_TIMEOUT"`
	TaskInterval   string `env:"TASK_INTERVAL"`
	InitialDelay   string `env:"INITIAL_TASK_DELAY"`
}

// FromEnv reads the publisher options from the process environment. Unset
// and empty variables are not supplied. It returns a nil Source when none of
// the variables is set. MQTT_CONNECTION_TIMEOUT is in seconds, TASK_INTERVAL
// and INITIAL_TASK_DELAY in milliseconds.
func FromEnv() (*Source, error) {
	var vars envVars
	if err := cleanenv.ReadEnv(&vars); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if vars == (envVars{}) {
		return nil, nil
	}

	src := &Source{
		ClientID:  nonEmpty(vars.ClientID),
		BrokerURL: nonEmpty(vars.BrokerURL),
		Topic:     nonEmpty(vars.Topic),
	}

	var err error
	if src.ConnectTimeout, err = parseEnvDuration(EnvConnectTimeout, vars.ConnectTimeout, time.Second); err != nil {
		return nil, err
	}
	if src.TaskInterval, err = parseEnvDuration(EnvTaskInterval, vars.TaskInterval, time.Millisecond); err != nil {
		return nil, err
	}
	if src.InitialDelay, err = parseEnvDuration(EnvInitialDelay, vars.InitialDelay, time.Millisecond); err != nil {
		return nil, err
	}

	return src, nil
}

func parseEnvDuration(name, raw string, unit time.Duration) (*time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &InvalidValueError{Field: name, Value: raw, Err: err}
	}
	d := time.Duration(n) * unit
	return &d, nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
