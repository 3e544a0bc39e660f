package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/cwrk-planet/board-service/internal/relay"
	"github.com/cwrk-planet/board-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Server struct {
	upgrader websocket.Upgrader
	relay    *relay.Relay

	pingEvery time.Duration
}

type Option func(*Server)

// WithPingEvery sets the keepalive interval; the read deadline is twice that.
func WithPingEvery(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.pingEvery = d
		}
	}
}

func NewServer(r *relay.Relay, opts ...Option) *Server {
	s := &Server{
		relay: r,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleWS upgrades GET /ws and serves the connection until it goes away.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logger.FromContext(r.Context()).Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(uuid.NewString(), conn)
	log := logger.FromContext(r.Context()).With(
		slog.String("conn_id", c.ID()),
		slog.String("remote", r.RemoteAddr),
	)
	ctx, cancel := context.WithCancel(logger.WithContext(r.Context(), log))
	defer cancel()

	log.Info("client connected")

	s.relay.Attach(ctx, c)

	go s.writeLoop(ctx, c)
	s.readLoop(ctx, c)

	s.relay.Detach(c)
	if err := c.Close(); err != nil {
		log.Debug("ws close failed", "err", err)
	}
	log.Info("client disconnected")
}

// readLoop dispatches frames one at a time, so a connection's events are
// handled in the order they were sent.
func (s *Server) readLoop(ctx context.Context, c *wsConn) {
	log := logger.FromContext(ctx)

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("ws read failed", "err", err)
			}
			return
		}

		var in relay.Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			log.Debug("ws frame ignored", "err", err)
			continue
		}
		s.relay.Dispatch(ctx, c, in)
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.ping(); err != nil {
				_ = c.Close()
				return
			}
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}
