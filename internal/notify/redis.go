package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"campusreservation/internal/booking"
	"campusreservation/internal/metrics"
)

// Redis publishes status changes as JSON on a pub/sub channel. Email and
// WhatsApp senders subscribe to the channel.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

// DialRedis parses url (redis://host:port/db) and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (n *Redis) Notify(ctx context.Context, c booking.StatusChange) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	err = n.client.Publish(ctx, n.channel, payload).Err()
	metrics.RecordNotification("redis", err)
	if err != nil {
		return fmt.Errorf("publish %s: %w", n.channel, err)
	}
	return nil
}
