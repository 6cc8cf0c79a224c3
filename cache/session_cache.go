// Package cache persists player-session snapshots in Redis so a
// surface that reconnects (page reload, dropped socket) can resume
// where the session left off.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"massiliafm/core/player"
)

// sessionTTL bounds how long an idle session survives a disconnect.
const sessionTTL = 24 * time.Hour

// SessionCache stores engine snapshots keyed by session ID.
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache creates a cache over the given Redis client.
func NewSessionCache(client *redis.Client) *SessionCache {
	return &SessionCache{client: client}
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("player:session:%s", sessionID)
}

// SaveSnapshot writes a session's current snapshot.
func (c *SessionCache) SaveSnapshot(ctx context.Context, sessionID string, snap player.Snapshot) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := c.client.Set(ctx, sessionKey(sessionID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a session's stored snapshot. The second return
// value is false when the session has no stored state.
func (c *SessionCache) LoadSnapshot(ctx context.Context, sessionID string) (player.Snapshot, bool, error) {
	var snap player.Snapshot
	if c.client == nil {
		return snap, false, fmt.Errorf("redis client not initialized")
	}

	data, err := c.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return snap, false, nil
		}
		return snap, false, fmt.Errorf("failed to load snapshot: %w", err)
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, false, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, true, nil
}

// DropSession removes a session's stored state.
func (c *SessionCache) DropSession(ctx context.Context, sessionID string) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := c.client.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to drop session: %w", err)
	}
	return nil
}

// Touch extends a session's TTL without rewriting it.
func (c *SessionCache) Touch(ctx context.Context, sessionID string) error {
	if c.client == nil {
		return fmt.Errorf("redis client not initialized")
	}
	if err := c.client.Expire(ctx, sessionKey(sessionID), sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}
