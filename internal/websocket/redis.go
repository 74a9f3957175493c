package websocket

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisBroker relays chat payloads between API instances over pub/sub.
type RedisBroker struct {
	client *redis.Client
	prefix string
	log    logrus.FieldLogger
}

func NewRedisBroker(client *redis.Client, prefix string, log logrus.FieldLogger) *RedisBroker {
	if prefix == "" {
		prefix = "mdm"
	}
	return &RedisBroker{client: client, prefix: prefix, log: log}
}

// Channel names the pub/sub channel of one request.
func (b *RedisBroker) Channel(requestID uint) string {
	return fmt.Sprintf("%s:chat:%d", b.prefix, requestID)
}

func (b *RedisBroker) Publish(ctx context.Context, requestID uint, payload []byte) error {
	if err := b.client.Publish(ctx, b.Channel(requestID), payload).Err(); err != nil {
		return fmt.Errorf("publish chat message: %w", err)
	}
	return nil
}

// RequestID extracts the request id from a channel name.
func (b *RedisBroker) RequestID(channel string) (uint, bool) {
	rest := strings.TrimPrefix(channel, b.prefix+":chat:")
	if rest == channel {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// Run subscribes to every chat channel and hands payloads to the local hub.
func (b *RedisBroker) Run(ctx context.Context, hub *Hub) {
	pubsub := b.client.PSubscribe(ctx, b.prefix+":chat:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	log := b.log.WithField("consumer", "chat")
	log.Info("chat relay started")

	for {
		select {
		case <-ctx.Done():
			log.Info("chat relay stopped")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if msg == nil {
				continue
			}
			id, ok := b.RequestID(msg.Channel)
			if !ok {
				log.WithField("channel", msg.Channel).Warn("ignoring message on unexpected channel")
				continue
			}
			hub.Deliver(id, []byte(msg.Payload))
		}
	}
}
