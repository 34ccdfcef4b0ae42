package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/kpipublisher/internal/lib/logger/sl"
)

var (
	ErrConnectInProgress = errors.New("connect already in progress or established")
	ErrDisconnected      = errors.New("disconnected before the connect attempt completed")
)

type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

// Outcome is the result of one connect attempt. Client is set on success.
type Outcome struct {
	Client Client
	Err    error
}

// Manager owns the connect attempt of a single client. It never retries;
// once connected, drops are handled by the client's own auto-reconnect.
type Manager struct {
	log    *slog.Logger
	client Client
	state  atomic.Int32
}

func NewManager(log *slog.Logger, client Client) *Manager {
	return &Manager{
		log:    log,
		client: client,
	}
}

// Connect issues a non-blocking connect and delivers exactly one Outcome on
// the returned channel. Cancelling ctx abandons the wait with ctx's error.
func (m *Manager) Connect(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)

	if !m.state.CompareAndSwap(int32(Disconnected), int32(Connecting)) {
		out <- Outcome{Err: ErrConnectInProgress}
		close(out)
		return out
	}

	m.log.Info("connecting to MQTT broker")
	token := m.client.Connect()

	go func() {
		defer close(out)

		var err error
		select {
		case <-token.Done():
			err = token.Error()
		case <-ctx.Done():
			err = ctx.Err()
			m.client.Disconnect(0)
			go m.dropLateConnect(token)
		}

		if err != nil {
			m.state.CompareAndSwap(int32(Connecting), int32(Disconnected))
			m.log.Error("failed to connect to MQTT broker", sl.Err(err))
			out <- Outcome{Err: err}
			return
		}

		if !m.state.CompareAndSwap(int32(Connecting), int32(Connected)) {
			out <- Outcome{Err: ErrDisconnected}
			return
		}
		m.log.Info("successfully connected to MQTT broker")
		out <- Outcome{Client: m.client}
	}()

	return out
}

// dropLateConnect disconnects the client if an abandoned connect attempt
// still succeeds, so no session outlives the attempt.
func (m *Manager) dropLateConnect(token mqtt.Token) {
	<-token.Done()
	if token.Error() != nil || !m.client.IsConnected() {
		return
	}
	if State(m.state.Load()) != Disconnected {
		return
	}
	m.client.Disconnect(disconnectQuiesce)
	m.log.Info("disconnected abandoned MQTT connection")
}

// State reports the connection state. After the first successful connect a
// client that is reconnecting reports Connecting.
func (m *Manager) State() State {
	s := State(m.state.Load())
	if s == Connected && !m.client.IsConnected() {
		return Connecting
	}
	return s
}

func (m *Manager) Connected() bool {
	return m.State() == Connected
}

// Disconnect closes the client connection. The manager can connect again
// afterwards.
func (m *Manager) Disconnect() {
	if State(m.state.Swap(int32(Disconnected))) == Disconnected {
		return
	}
	m.client.Disconnect(disconnectQuiesce)
	m.log.Info("disconnected from MQTT broker")
}
