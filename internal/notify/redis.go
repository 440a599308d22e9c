package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis channel room events are published on
const DefaultChannel = "wordwarrior:rooms"

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	log.Printf("Connected to Redis at %s", addr)
	return client, nil
}

// RedisBroker shares events between server instances through Redis pub/sub.
// Events received from Redis are fanned out to local subscribers by a Hub.
type RedisBroker struct {
	client  *redis.Client
	channel string
	pubsub  *redis.PubSub
	local   *Hub
	done    chan struct{}
}

// NewRedisBroker subscribes to channel and starts relaying its messages
func NewRedisBroker(ctx context.Context, client *redis.Client, channel string) (*RedisBroker, error) {
	pubsub := client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	b := &RedisBroker{
		client:  client,
		channel: channel,
		pubsub:  pubsub,
		local:   NewHub(),
		done:    make(chan struct{}),
	}
	go b.relay()
	return b, nil
}

func (b *RedisBroker) relay() {
	defer close(b.done)
	for msg := range b.pubsub.Channel() {
		var e Event
		if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
			log.Printf("Dropping malformed room event: %v", err)
			continue
		}
		b.local.Publish(context.Background(), e)
	}
}

// Publish sends e to every instance, including this one
func (b *RedisBroker) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe registers a local subscription
func (b *RedisBroker) Subscribe(ctx context.Context, f Filter) (*Subscription, error) {
	return b.local.Subscribe(ctx, f)
}

// Close stops relaying and ends every local subscription
func (b *RedisBroker) Close() error {
	err := b.pubsub.Close()
	<-b.done
	b.local.Close()
	return err
}
