package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultDedupWindow is how long a repeat view of the same path by the same
// visitor is ignored.
const DefaultDedupWindow = 30 * time.Minute

// DedupChecker suppresses repeat page views using Redis SETNX keys.
// Key format: pageview:<visitor_hash>:<path>
type DedupChecker struct {
	client *redis.Client
	window time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
// A non-positive window falls back to DefaultDedupWindow.
func NewDedupChecker(client *redis.Client, window time.Duration) *DedupChecker {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &DedupChecker{client: client, window: window}
}

// IsDuplicate reports whether visitorHash already viewed path within the
// window. The first call for a pair marks it, so check and mark are atomic.
func (d *DedupChecker) IsDuplicate(ctx context.Context, visitorHash, path string) (bool, error) {
	set, err := d.client.SetNX(ctx, Key(visitorHash, path), "1", d.window).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return !set, nil
}

// Key returns the Redis key for a visitor/path pair.
func Key(visitorHash, path string) string {
	return fmt.Sprintf("pageview:%s:%s", visitorHash, path)
}
