package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = time.Hour

// DedupChecker provides idempotency checks for workflow events.
// Key format: dedup:workflow:<subject_id>:<status>:<unix_nano>
type DedupChecker struct {
	client *redis.Client
}

func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this exact event has already been fanned out.
func (d *DedupChecker) IsDuplicate(ctx context.Context, subjectID, status string, ts time.Time) (bool, error) {
	n, err := d.client.Exists(ctx, dedupKey(subjectID, status, ts)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this event has been handled (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, subjectID, status string, ts time.Time) error {
	return d.client.Set(ctx, dedupKey(subjectID, status, ts), "1", dedupTTL).Err()
}

func dedupKey(subjectID, status string, ts time.Time) string {
	return fmt.Sprintf("dedup:workflow:%s:%s:%d", subjectID, status, ts.UnixNano())
}
