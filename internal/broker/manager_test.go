package broker

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speedwagon-io/kpipublisher/internal/config"
	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
)

type stubClient struct {
	connectToken *Token
	connects     atomic.Int32
	disconnects  atomic.Int32
	connected    atomic.Bool
}

func newStubClient() *stubClient {
	return &stubClient{connectToken: NewToken()}
}

func (c *stubClient) Connect() mqtt.Token {
	c.connects.Add(1)
	return c.connectToken
}

func (c *stubClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *stubClient) Publish(string, byte, bool, interface{}) mqtt.Token {
	return CompletedToken(nil)
}

func (c *stubClient) Disconnect(uint) {
	c.disconnects.Add(1)
	c.connected.Store(false)
}

func receive(t *testing.T, ch <-chan Outcome) Outcome {
	t.Helper()
	select {
	case o, ok := <-ch:
		require.True(t, ok, "outcome channel closed without a value")
		return o
	case <-time.After(time.Second):
		t.Fatal("no outcome delivered")
		return Outcome{}
	}
}

func TestManagerConnectSuccess(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ch := m.Connect(context.Background())
	assert.Equal(t, Connecting, m.State())

	select {
	case <-ch:
		t.Fatal("outcome delivered before the connect completed")
	case <-time.After(20 * time.Millisecond):
	}

	client.connected.Store(true)
	client.connectToken.Complete(nil)

	o := receive(t, ch)
	require.NoError(t, o.Err)
	assert.Same(t, client, o.Client)
	assert.Equal(t, Connected, m.State())
	assert.True(t, m.Connected())

	_, open := <-ch
	assert.False(t, open)
}

func TestManagerConnectFailureReturnsToDisconnected(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)
	boom := errors.New("connection refused")

	ch := m.Connect(context.Background())
	client.connectToken.Complete(boom)

	o := receive(t, ch)
	assert.ErrorIs(t, o.Err, boom)
	assert.Nil(t, o.Client)
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, int32(1), client.connects.Load())
}

func TestManagerConnectIsNotReentrant(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	_ = m.Connect(context.Background())
	o := receive(t, m.Connect(context.Background()))

	assert.ErrorIs(t, o.Err, ErrConnectInProgress)
	assert.Equal(t, int32(1), client.connects.Load())
}

func TestManagerConnectCancelled(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.Connect(ctx)
	cancel()

	o := receive(t, ch)
	assert.ErrorIs(t, o.Err, context.Canceled)
	assert.Equal(t, Disconnected, m.State())
}

func TestManagerDisconnectsConnectThatSucceedsAfterCancel(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.Connect(ctx)
	cancel()
	receive(t, ch)

	// Cancelling aborts the pending attempt.
	assert.Equal(t, int32(1), client.disconnects.Load())
	m.Disconnect()
	assert.Equal(t, int32(1), client.disconnects.Load())

	client.connected.Store(true)
	client.connectToken.Complete(nil)

	require.Eventually(t, func() bool { return client.disconnects.Load() == 2 }, time.Second, time.Millisecond)
	assert.False(t, client.IsConnected())
	assert.Equal(t, Disconnected, m.State())
}

func TestManagerIgnoresFailedConnectAfterCancel(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ctx, cancel := context.WithCancel(context.Background())
	ch := m.Connect(ctx)
	cancel()
	receive(t, ch)

	client.connectToken.Complete(errors.New("refused"))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), client.disconnects.Load())
}

func TestManagerDisconnectDuringConnect(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ch := m.Connect(context.Background())
	m.Disconnect()
	client.connectToken.Complete(nil)

	o := receive(t, ch)
	assert.ErrorIs(t, o.Err, ErrDisconnected)
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, int32(1), client.disconnects.Load())
}

func TestManagerStateFollowsClientAfterConnect(t *testing.T) {
	client := newStubClient()
	m := NewManager(sl.Discard(), client)

	ch := m.Connect(context.Background())
	client.connected.Store(true)
	client.connectToken.Complete(nil)
	receive(t, ch)

	client.connected.Store(false)
	assert.Equal(t, Connecting, m.State())

	client.connected.Store(true)
	assert.Equal(t, Connected, m.State())

	m.Disconnect()
	m.Disconnect()
	assert.Equal(t, Disconnected, m.State())
	assert.Equal(t, int32(1), client.disconnects.Load())
}

func TestNewClientAppliesOptions(t *testing.T) {
	opts := config.Options{
		ClientID:       "ABC1234567",
		BrokerURL:      "tcp://127.0.0.1:1883",
		Topic:          "engines",
		TaskInterval:   time.Second,
		ConnectTimeout: 3 * time.Second,
	}

	client := NewClient(sl.Discard(), opts)
	r := client.OptionsReader()

	assert.Equal(t, "ABC1234567", r.ClientID())
	assert.True(t, r.AutoReconnect())
	assert.True(t, r.CleanSession())
	assert.Equal(t, 3*time.Second, r.ConnectTimeout())
	require.Len(t, r.Servers(), 1)
	assert.Equal(t, "127.0.0.1:1883", r.Servers()[0].Host)
	assert.False(t, r.ConnectRetry())
	assert.False(t, client.IsConnected())
}

func TestNewClientWithConnectRetry(t *testing.T) {
	opts := config.Options{
		ClientID:       "ABC1234567",
		BrokerURL:      "tcp://127.0.0.1:1883",
		Topic:          "engines",
		TaskInterval:   time.Second,
		ConnectTimeout: 3 * time.Second,
	}

	r := NewClient(sl.Discard(), opts, WithConnectRetry(7*time.Second)).OptionsReader()

	assert.True(t, r.ConnectRetry())
	assert.Equal(t, 7*time.Second, r.ConnectRetryInterval())
	assert.True(t, r.AutoReconnect())
}

func TestLogClientLogsPublishes(t *testing.T) {
	var buf bytes.Buffer
	client := NewLogClient(sl.NewLogger(&buf, "info", sl.FormatJSON))

	tok := client.Publish("/engines/ABC1234567", QoSAtMostOnce, true, []byte(`{"a":1}`))
	assert.ErrorIs(t, tok.Error(), mqtt.ErrNotConnected)

	require.True(t, client.Connect().WaitTimeout(time.Second))
	assert.True(t, client.IsConnected())

	tok = client.Publish("/engines/ABC1234567", QoSAtMostOnce, true, []byte(`{"a":1}`))
	require.True(t, tok.WaitTimeout(time.Second))
	assert.NoError(t, tok.Error())
	assert.Contains(t, buf.String(), `"topic":"/engines/ABC1234567"`)
	assert.Contains(t, buf.String(), `"retained":true`)

	client.Disconnect(0)
	assert.False(t, client.IsConnected())
}

func TestTokenCompletesOnce(t *testing.T) {
	tok := NewToken()
	assert.False(t, tok.WaitTimeout(10*time.Millisecond))
	assert.NoError(t, tok.Error())

	first := errors.New("first")
	tok.Complete(first)
	tok.Complete(errors.New("second"))

	assert.True(t, tok.Wait())
	assert.Equal(t, first, tok.Error())
}
