package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"studiobooking/internal/domain"
)

const DefaultChannel = "studiobooking:notifications"

// RedisBroadcaster fans notifications out through a redis pub/sub channel
// so every instance can push to the websockets it holds.
type RedisBroadcaster struct {
	client  *redis.Client
	channel string
	local   *Hub
	log     *zap.Logger
}

func NewRedisBroadcaster(client *redis.Client, channel string, local *Hub, log *zap.Logger) *RedisBroadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisBroadcaster{client: client, channel: channel, local: local, log: log}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Run relays channel messages to the local hub until ctx is done.
func (b *RedisBroadcaster) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.log.Info("notification fan-out subscribed", zap.String("channel", b.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBroadcaster) handle(payload string) {
	var n domain.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		b.log.Warn("bad notification on channel", zap.String("channel", b.channel), zap.Error(err))
		return
	}
	b.local.Deliver(&n)
}
