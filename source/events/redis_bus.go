package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"worklogz/source/schemas"
)

const PIPELINE_EVENTS_CHANNEL = "worklogz:pipeline:events"

// RedisBus publishes events on a Redis channel so that every API instance
// relays them to its own websocket clients.
type RedisBus struct {
	client  *redis.Client
	channel string
	hub     *Hub
}

func NewRedisBus(client *redis.Client, hub *Hub) *RedisBus {
	return &RedisBus{client: client, channel: PIPELINE_EVENTS_CHANNEL, hub: hub}
}

// Emit publishes the event. When publishing fails the event still reaches
// local clients.
func (b *RedisBus) Emit(ctx context.Context, event schemas.PipelineEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] cannot encode %s event: %v", event.Action, err)
		return
	}

	if err := b.client.Publish(context.WithoutCancel(ctx), b.channel, payload).Err(); err != nil {
		log.Printf("[Events] publish %s failed: %v", event.Action, err)
		b.hub.Broadcast(event)
	}
}

// Subscribe blocks relaying channel messages to the hub until ctx is done.
// ready is closed once the subscription is active.
func (b *RedisBus) Subscribe(ctx context.Context, ready chan<- struct{}) error {
	pubsub := b.client.Subscribe(ctx, b.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return err
	}
	if ready != nil {
		close(ready)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			event := schemas.PipelineEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("[Events] discarding malformed event: %v", err)
				continue
			}
			b.hub.Broadcast(event)
		}
	}
}
