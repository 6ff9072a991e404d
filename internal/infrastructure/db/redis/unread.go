package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// UnreadChannel publishes and streams per-user unread counts over pub/sub.
// Channel format: notifications:unread:<user_id>
type UnreadChannel struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewUnreadChannel(client *redis.Client, log zerolog.Logger) *UnreadChannel {
	return &UnreadChannel{client: client, log: log}
}

func (u *UnreadChannel) PublishUnread(ctx context.Context, userID string, count int64) error {
	if err := u.client.Publish(ctx, unreadChannel(userID), count).Err(); err != nil {
		return fmt.Errorf("publish unread: %w", err)
	}
	return nil
}

// Subscribe confirms the subscription before returning so callers can fall
// back to polling when Redis is unreachable.
func (u *UnreadChannel) Subscribe(ctx context.Context, userID string) (<-chan int64, error) {
	sub := u.client.Subscribe(ctx, unreadChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe unread: %w", err)
	}

	out := make(chan int64, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				n, err := strconv.ParseInt(msg.Payload, 10, 64)
				if err != nil {
					u.log.Warn().Err(err).Str("channel", msg.Channel).Msg("bad unread payload")
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func unreadChannel(userID string) string {
	return "notifications:unread:" + userID
}
