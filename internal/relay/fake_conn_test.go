package relay

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type fakeConn struct {
	id string

	mu      sync.Mutex
	sent    []Envelope
	closed  bool
	sendErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{id: uuid.NewString()}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("closed")
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, env)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

func (c *fakeConn) events() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]Envelope(nil), c.sent...)
}

func (c *fakeConn) ofType(t string) []Envelope {
	var out []Envelope
	for _, env := range c.events() {
		if env.Type == t {
			out = append(out, env)
		}
	}
	return out
}
