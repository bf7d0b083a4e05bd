package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"taxrag/internal/engine"
	"taxrag/internal/models"
)

const checkpointTTL = 30 * time.Minute

// CheckpointCache layers redis in front of a durable checkpoint store. Loads
// are served from cache when possible; saves write through to the inner
// store first, so the cache can only ever lag, never lead. A nil inner store
// makes redis itself the (TTL-bounded) store.
type CheckpointCache struct {
	client *Client
	inner  engine.Checkpointer
}

func NewCheckpointCache(client *Client, inner engine.Checkpointer) *CheckpointCache {
	return &CheckpointCache{client: client, inner: inner}
}

func checkpointKey(threadID string) string {
	return fmt.Sprintf("engine:thread:%s", threadID)
}

func (c *CheckpointCache) Load(ctx context.Context, threadID string) (*models.Checkpoint, error) {
	raw, err := c.client.Get(ctx, checkpointKey(threadID))
	if err == nil {
		var cp models.Checkpoint
		if uerr := json.Unmarshal([]byte(raw), &cp); uerr == nil {
			return &cp, nil
		}
		log.Printf("checkpoint cache decode failed for thread %s, falling back", threadID)
	} else if err != ErrCacheMiss {
		log.Printf("checkpoint cache read failed: %v", err)
	}

	if c.inner == nil {
		return nil, nil
	}
	cp, err := c.inner.Load(ctx, threadID)
	if err != nil || cp == nil {
		return cp, err
	}
	c.fill(ctx, cp)
	return cp, nil
}

func (c *CheckpointCache) Save(ctx context.Context, cp *models.Checkpoint) error {
	if c.inner == nil {
		// redis is the store itself; a failed write must surface
		return c.write(ctx, cp)
	}
	if err := c.inner.Save(ctx, cp); err != nil {
		return err
	}
	c.fill(ctx, cp)
	return nil
}

func (c *CheckpointCache) write(ctx context.Context, cp *models.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := c.client.Set(ctx, checkpointKey(cp.ThreadID), data, checkpointTTL); err != nil {
		return &models.ExternalServiceError{Service: "redis", Err: err}
	}
	return nil
}

// fill best-effort populates the cache; a cache write failure is logged,
// never surfaced, since the durable store already holds the truth.
func (c *CheckpointCache) fill(ctx context.Context, cp *models.Checkpoint) {
	if err := c.write(ctx, cp); err != nil {
		log.Printf("checkpoint cache write failed: %v", err)
	}
}

// Invalidate drops the cached snapshot for a thread.
func (c *CheckpointCache) Invalidate(ctx context.Context, threadID string) {
	if err := c.client.Del(ctx, checkpointKey(threadID)); err != nil && err != ErrCacheMiss {
		log.Printf("checkpoint cache invalidate failed: %v", err)
	}
}
