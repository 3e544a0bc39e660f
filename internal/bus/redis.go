// Package bus fans board events out across service instances over Redis
// pub/sub.
package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cwrk-planet/board-service/internal/relay"
	"github.com/cwrk-planet/board-service/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "board:events"

// Redis publishes envelopes on a channel and delivers everything received on
// it to the local registry, the publisher's own events included.
type Redis struct {
	client  *redis.Client
	channel string
	local   *relay.Registry
}

func NewRedis(client *redis.Client, channel string, local *relay.Registry) *Redis {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, local: local}
}

// Broadcast implements relay.Broadcaster. When Redis is unreachable the
// envelope still reaches this instance's clients.
func (b *Redis) Broadcast(ctx context.Context, env relay.Envelope) {
	data, err := json.Marshal(env)
	if err == nil {
		err = b.client.Publish(ctx, b.channel, data).Err()
	}
	if err != nil {
		logger.FromContext(ctx).Warn("bus publish failed, delivering locally",
			"event", env.Type, "err", err)
		b.local.Broadcast(ctx, env)
	}
}

// Run subscribes to the channel and relays messages until ctx is done.
func (b *Redis) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// confirm the subscription before consuming
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	return b.consume(ctx, sub.Channel())
}

func (b *Redis) consume(ctx context.Context, ch <-chan *redis.Message) error {
	log := logger.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env relay.Envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				log.Debug("bus message ignored", "err", err)
				continue
			}
			b.local.Broadcast(ctx, env)
		}
	}
}
