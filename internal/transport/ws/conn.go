package ws

import (
	"sync"
	"time"

	"github.com/cwrk-planet/board-service/internal/relay"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// wsConn adapts a websocket connection to relay.Conn.
type wsConn struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(id string, c *websocket.Conn) *wsConn {
	return &wsConn{
		id:     id,
		conn:   c,
		closed: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

func (c *wsConn) Send(env relay.Envelope) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(env)
}

func (c *wsConn) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// Close is safe to call from the read loop, the ping loop and a broadcast at once.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.conn.Close()
	})
	return err
}
