// Package server provides an optional redis-backed broadcast bus so room
// messages reach members connected to other instances of the service.
package server

import (
	"context"
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BusMessage is the payload published on the redis channel for a room.
// Origin carries the publishing instance's ID so subscribers can skip
// their own publishes.
type BusMessage struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Payload []byte `json:"payload"`
}

// BroadcastBus fans room broadcasts out across service instances over
// redis pub/sub. Each instance publishes to a per-room channel and
// pattern-subscribes to all of them.
type BroadcastBus struct {
	rdb    *redis.Client
	origin string
}

// NewBroadcastBus connects to redis and verifies connectivity.
func NewBroadcastBus(ctx context.Context, addr string, db int) (*BroadcastBus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &BroadcastBus{rdb: rdb, origin: uuid.NewString()}, nil
}

// Publish sends an encoded broadcast payload to the channel for a room.
func (b *BroadcastBus) Publish(ctx context.Context, room string, payload []byte) error {
	raw, err := json.Marshal(BusMessage{Origin: b.origin, Room: room, Payload: payload})
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, busChannel(room), raw).Err()
}

// Subscribe listens to all room channels and invokes fn for each message
// published by another instance, until ctx is cancelled.
func (b *BroadcastBus) Subscribe(ctx context.Context, fn func(room string, payload []byte)) {
	pubsub := b.rdb.PSubscribe(ctx, busChannel("*"))
	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			_ = pubsub.Close()
			return
		case msg := <-ch:
			var bm BusMessage
			if err := json.Unmarshal([]byte(msg.Payload), &bm); err != nil {
				log.Printf("Discarding undecodable bus message: %v", err)
				continue
			}
			if bm.Origin == b.origin || bm.Room == "" {
				continue
			}
			fn(bm.Room, bm.Payload)
		}
	}
}

// Close shuts down the redis connection.
func (b *BroadcastBus) Close() {
	_ = b.rdb.Close()
}

// busChannel namespaces the pub/sub channel for a room.
func busChannel(room string) string {
	return "room:" + room
}
