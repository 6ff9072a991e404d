package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gestaoprojetos/workflow-system/internal/core/ports"
)

// DefaultPollInterval is the unread-count polling period.
const DefaultPollInterval = 30 * time.Second

// UnreadCounter is the read side the polling feed needs.
type UnreadCounter interface {
	CountUnread(ctx context.Context, userID string) (int64, error)
}

// PollingFeed re-reads the unread count on a fixed interval.
type PollingFeed struct {
	counter  UnreadCounter
	interval time.Duration
	log      zerolog.Logger
}

func NewPollingFeed(counter UnreadCounter, interval time.Duration, log zerolog.Logger) *PollingFeed {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingFeed{counter: counter, interval: interval, log: log}
}

// Subscribe starts a ticker bound to ctx. Failed polls are logged and the
// next tick retries.
func (f *PollingFeed) Subscribe(ctx context.Context, userID string) (<-chan int64, error) {
	out := make(chan int64, 1)
	go func() {
		defer close(out)
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := f.counter.CountUnread(ctx, userID)
				if err != nil {
					if ctx.Err() == nil {
						f.log.Warn().Err(err).Str("user_id", userID).Msg("unread poll failed")
					}
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

// FallbackFeed uses the push feed when it can subscribe and the polling
// feed otherwise.
type FallbackFeed struct {
	push ports.UnreadFeed
	poll ports.UnreadFeed
	log  zerolog.Logger
}

func NewFallbackFeed(push, poll ports.UnreadFeed, log zerolog.Logger) *FallbackFeed {
	return &FallbackFeed{push: push, poll: poll, log: log}
}

func (f *FallbackFeed) Subscribe(ctx context.Context, userID string) (<-chan int64, error) {
	if f.push != nil {
		ch, err := f.push.Subscribe(ctx, userID)
		if err == nil {
			return ch, nil
		}
		f.log.Warn().Err(err).Str("user_id", userID).Msg("push feed unavailable, polling")
	}
	return f.poll.Subscribe(ctx, userID)
}
