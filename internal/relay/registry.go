package relay

import (
	"context"
	"sync"

	"github.com/cwrk-planet/board-service/pkg/logger"
)

// Conn is one connected client as seen by the relay.
type Conn interface {
	ID() string
	// Send writes env to the client. Implementations serialize concurrent calls.
	Send(env Envelope) error
	Close() error
}

// Broadcaster delivers an envelope to every connected client.
type Broadcaster interface {
	Broadcast(ctx context.Context, env Envelope)
}

// Registry is the set of connections of one server instance.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

func (r *Registry) Register(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[c.ID()] = c
}

// Unregister is a no-op for connections that are not registered.
func (r *Registry) Unregister(c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.conns[c.ID()]; ok && cur == c {
		delete(r.conns, c.ID())
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// Broadcast sends env to a snapshot of the current members, one after
// another. Delivery is best-effort: a failing connection is closed, and its
// read loop unregisters it.
func (r *Registry) Broadcast(ctx context.Context, env Envelope) {
	for _, c := range r.snapshot() {
		if err := c.Send(env); err != nil {
			logger.FromContext(ctx).Debug("broadcast send failed",
				"event", env.Type, "conn_id", c.ID(), "err", err)
			_ = c.Close()
		}
	}
}

// CloseAll closes and forgets every connection.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]Conn)
	r.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (r *Registry) snapshot() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}
