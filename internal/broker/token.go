package broker

import (
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Token is an mqtt.Token completed by calling Complete. It backs clients that
// do not talk to a broker.
type Token struct {
	once sync.Once
	done chan struct{}
	err  error
}

var _ mqtt.Token = (*Token)(nil)

func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// CompletedToken returns a token that is already done with err.
func CompletedToken(err error) *Token {
	t := NewToken()
	t.Complete(err)
	return t
}

// Complete marks the token done. Only the first call has an effect.
func (t *Token) Complete(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

func (t *Token) Wait() bool {
	<-t.done
	return true
}

func (t *Token) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

func (t *Token) Done() <-chan struct{} {
	return t.done
}

func (t *Token) Error() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}
