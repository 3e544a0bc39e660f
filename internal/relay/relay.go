//go:generate go run go.uber.org/mock/mockgen -source=relay.go -destination=../mocks/mock_board.go -package=mocks
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cwrk-planet/board-service/internal/domain"
	"github.com/cwrk-planet/board-service/pkg/logger"
)

// ReplayLimit is how many recent messages a joining client receives.
const ReplayLimit = 100

// Board is the message store the relay applies client events to.
type Board interface {
	Create(ctx context.Context, in domain.MessageInput) (*domain.Message, error)
	Recent(ctx context.Context, limit int) ([]domain.Message, error)
	Delete(ctx context.Context, id string) error
}

// HandlerFunc handles one inbound event from conn.
type HandlerFunc func(ctx context.Context, conn Conn, payload json.RawMessage) error

// Relay turns client events into store mutations and fans the results out.
// It keeps no state of its own beyond the connection registry.
type Relay struct {
	board     Board
	registry  *Registry
	out       Broadcaster
	opTimeout time.Duration
	handlers  map[string]HandlerFunc
}

type Option func(*Relay)

// WithBroadcaster replaces the local registry as the fan-out target,
// e.g. with a bus shared by several instances.
func WithBroadcaster(b Broadcaster) Option {
	return func(r *Relay) { r.out = b }
}

// WithOpTimeout bounds each store call; zero disables the bound.
func WithOpTimeout(d time.Duration) Option {
	return func(r *Relay) { r.opTimeout = d }
}

func New(board Board, registry *Registry, opts ...Option) *Relay {
	r := &Relay{
		board:     board,
		registry:  registry,
		out:       registry,
		opTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.handlers = map[string]HandlerFunc{
		EventSendMessage:   r.handleSend,
		EventDeleteMessage: r.handleDelete,
	}
	return r
}

func (r *Relay) Registry() *Registry { return r.registry }

// Attach registers conn and sends it the recent messages, newest first.
func (r *Relay) Attach(ctx context.Context, conn Conn) {
	r.registry.Register(conn)

	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	log := logger.FromContext(ctx)
	msgs, err := r.board.Recent(opCtx, ReplayLimit)
	if err != nil {
		log.Error("fetch recent messages failed", "err", err)
		return
	}
	if err := conn.Send(Envelope{Type: EventPreviousMessages, Payload: msgs}); err != nil {
		log.Warn("send previous messages failed", "err", err)
		return
	}
	log.Debug("replayed recent messages", "count", len(msgs))
}

// Detach removes conn from the registry. Safe to call more than once.
func (r *Relay) Detach(conn Conn) {
	r.registry.Unregister(conn)
}

// Dispatch runs the handler registered for in.Type. Failures are logged and
// never reported to the client.
func (r *Relay) Dispatch(ctx context.Context, conn Conn, in Inbound) {
	log := logger.FromContext(ctx)

	h, ok := r.handlers[in.Type]
	if !ok {
		log.Debug("unknown event ignored", "event", in.Type)
		return
	}

	err := h(ctx, conn, in.Payload)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrValidation), errors.Is(err, errBadPayload):
		log.Debug("event dropped", "event", in.Type, "err", err)
	default:
		log.Error("event failed", "event", in.Type, "err", err)
	}
}

var errBadPayload = errors.New("malformed payload")

func (r *Relay) handleSend(ctx context.Context, _ Conn, payload json.RawMessage) error {
	var in domain.MessageInput
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}

	opCtx, cancel := r.opContext(ctx)
	defer cancel()

	msg, err := r.board.Create(opCtx, in)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("message created", slog.String("message_id", msg.ID))

	r.out.Broadcast(ctx, Envelope{Type: EventReceivedMessage, Payload: msg})
	return nil
}

func (r *Relay) handleDelete(ctx context.Context, _ Conn, payload json.RawMessage) error {
	var p DeletePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", errBadPayload, err)
	}

	// an empty id names no stored message
	if strings.TrimSpace(p.ID) != "" {
		opCtx, cancel := r.opContext(ctx)
		defer cancel()

		if err := r.board.Delete(opCtx, p.ID); err != nil {
			return err
		}
	}
	logger.FromContext(ctx).Info("message deleted", slog.String("message_id", p.ID))

	r.out.Broadcast(ctx, Envelope{Type: EventRemovedMessage, Payload: p.ID})
	return nil
}

func (r *Relay) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opTimeout)
}

// Close drops and closes every connection, used on shutdown.
func (r *Relay) Close() {
	r.registry.CloseAll()
}
