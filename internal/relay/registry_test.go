package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterUnregister(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a, b := newFakeConn(), newFakeConn()

	reg.Register(a)
	reg.Register(b)
	req.Equal(2, reg.Len())

	reg.Unregister(a)
	reg.Unregister(a)
	req.Equal(1, reg.Len())

	reg.Unregister(newFakeConn())
	req.Equal(1, reg.Len())
}

func TestRegistry_Broadcast(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a, b := newFakeConn(), newFakeConn()
	broken := newFakeConn()
	broken.sendErr = errors.New("write: broken pipe")
	reg.Register(a)
	reg.Register(b)
	reg.Register(broken)

	reg.Broadcast(context.Background(), Envelope{Type: EventRemovedMessage, Payload: "42"})

	for _, c := range []*fakeConn{a, b} {
		got := c.events()
		req.Len(got, 1)
		req.Equal(Envelope{Type: EventRemovedMessage, Payload: "42"}, got[0])
	}
	req.True(broken.isClosed())
	req.False(a.isClosed())
}

func TestRegistry_CloseAll(t *testing.T) {
	req := require.New(t)
	reg := NewRegistry()
	a, b := newFakeConn(), newFakeConn()
	reg.Register(a)
	reg.Register(b)

	reg.CloseAll()

	req.Zero(reg.Len())
	req.True(a.isClosed())
	req.True(b.isClosed())
}
