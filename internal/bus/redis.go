package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/go-redis/redis/v8"
)

const channelPrefix = "vbcs:room:"

// RedisBus spans rooms across server instances over Redis pub/sub.
// Local connections register in an embedded Hub; publishes go through
// Redis so every instance delivers to its own subscribers.
type RedisBus struct {
	client *redis.Client
	local  *Hub
	sub    *redis.PubSub
}

func NewRedisBus(client *redis.Client) *RedisBus {
	b := &RedisBus{
		client: client,
		local:  NewHub(),
		sub:    client.PSubscribe(context.Background(), channelPrefix+"*"),
	}
	go b.listen()
	return b
}

func (b *RedisBus) listen() {
	for msg := range b.sub.Channel() {
		var ev Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			slog.Warn("dropping malformed bus message", "channel", msg.Channel, "error", err)
			continue
		}
		room := strings.TrimPrefix(msg.Channel, channelPrefix)
		b.local.Publish(room, ev)
	}
}

func (b *RedisBus) Subscribe(room string, c Conn) func() {
	return b.local.Subscribe(room, c)
}

func (b *RedisBus) Publish(room string, ev Envelope) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode event", "room", room, "type", ev.Type, "error", err)
		return
	}
	if err := b.client.Publish(context.Background(), channelPrefix+room, payload).Err(); err != nil {
		// Redis being down must not silence this instance's own rooms.
		slog.Warn("redis publish failed, delivering locally", "room", room, "error", err)
		b.local.Publish(room, ev)
	}
}

func (b *RedisBus) Close() error {
	return b.sub.Close()
}
