package publisher

import (
	"bytes"
	"sync"
	"sync/atomic"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/speedwagon-io/kpipublisher/internal/broker"
)

type publishCall struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes instead of talking to a broker.
type fakeClient struct {
	connectToken *broker.Token
	connected    atomic.Bool
	disconnects  atomic.Int32

	mu         sync.Mutex
	publishErr error
	calls      []publishCall
}

func newFakeClient() *fakeClient {
	return &fakeClient{connectToken: broker.NewToken()}
}

// connectedFakeClient completes the connect as soon as it is issued.
func connectedFakeClient() *fakeClient {
	c := newFakeClient()
	c.succeed()
	return c
}

func (c *fakeClient) succeed() {
	c.connected.Store(true)
	c.connectToken.Complete(nil)
}

func (c *fakeClient) fail(err error) {
	c.connectToken.Complete(err)
}

func (c *fakeClient) Connect() mqtt.Token {
	return c.connectToken
}

func (c *fakeClient) IsConnected() bool {
	return c.connected.Load()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, publishCall{
		topic:    topic,
		qos:      qos,
		retained: retained,
		payload:  append([]byte(nil), payload.([]byte)...),
	})
	return broker.CompletedToken(c.publishErr)
}

func (c *fakeClient) Disconnect(uint) {
	c.disconnects.Add(1)
	c.connected.Store(false)
}

func (c *fakeClient) published() []publishCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]publishCall(nil), c.calls...)
}

func (c *fakeClient) setPublishErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishErr = err
}

// lockedBuffer is a log sink safe for concurrent writers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
