package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPublisherEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvBrokerURL, EnvClientID, EnvTopic, EnvConnectTimeout, EnvTaskInterval, EnvInitialDelay} {
		t.Setenv(name, "")
	}
}

func TestFromEnvReadsAllVariables(t *testing.T) {
	clearPublisherEnv(t)
	t.Setenv(EnvBrokerURL, "tcp://env:1883")
	t.Setenv(EnvClientID, "ENV0000001")
	t.Setenv(EnvTopic, "engines")
	t.Setenv(EnvConnectTimeout, "3")
	t.Setenv(EnvTaskInterval, "250")
	t.Setenv(EnvInitialDelay, "50")

	src, err := FromEnv()
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Equal(t, "tcp://env:1883", *src.BrokerURL)
	assert.Equal(t, "ENV0000001", *src.ClientID)
	assert.Equal(t, "engines", *src.Topic)
	assert.Equal(t, 3*time.Second, *src.ConnectTimeout)
	assert.Equal(t, 250*time.Millisecond, *src.TaskInterval)
	assert.Equal(t, 50*time.Millisecond, *src.InitialDelay)
}

func TestFromEnvWithNothingSet(t *testing.T) {
	clearPublisherEnv(t)

	src, err := FromEnv()
	require.NoError(t, err)
	assert.Nil(t, src)
}

func TestFromEnvLeavesUnsetFieldsNil(t *testing.T) {
	clearPublisherEnv(t)
	t.Setenv(EnvTopic, "engines")

	src, err := FromEnv()
	require.NoError(t, err)
	require.NotNil(t, src)

	assert.Nil(t, src.ClientID)
	assert.Nil(t, src.BrokerURL)
	assert.Nil(t, src.TaskInterval)
	assert.Equal(t, "engines", *src.Topic)
}

func TestFromEnvRejectsNonNumericValues(t *testing.T) {
	clearPublisherEnv(t)
	t.Setenv(EnvTaskInterval, "5s")

	_, err := FromEnv()

	var invalid *InvalidValueError
	require.True(t, errors.As(err, &invalid), "got %v", err)
	assert.Equal(t, EnvTaskInterval, invalid.Field)
	assert.Equal(t, "5s", invalid.Value)
}

func TestEnvironmentOverridesProgrammaticOptions(t *testing.T) {
	clearPublisherEnv(t)
	t.Setenv(EnvClientID, "ENV0000001")
	t.Setenv(EnvTaskInterval, "1000")

	env, err := FromEnv()
	require.NoError(t, err)

	arg := NewBuilder("ARG0000001", "tcp://arg:1883", "engines").TaskInterval(time.Minute).Build()

	opts, err := Resolve(env, arg)
	require.NoError(t, err)

	assert.Equal(t, "ENV0000001", opts.ClientID)
	assert.Equal(t, time.Second, opts.TaskInterval)
	assert.Equal(t, "tcp://arg:1883", opts.BrokerURL)
}
