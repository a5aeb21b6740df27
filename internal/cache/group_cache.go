package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blastroyale/partysync/internal/model"
)

// GroupCache holds hot group snapshots in Redis so that the frequent
// full-snapshot fetches after a change ping skip MongoDB.
type GroupCache interface {
	Set(ctx context.Context, group *model.Group) error
	Get(ctx context.Context, id string) (*model.Group, error)
	Delete(ctx context.Context, id string) error
}

type groupCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGroupCache creates a new group cache.
func NewGroupCache(client *redis.Client) GroupCache {
	return &groupCache{
		client: client,
		ttl:    24 * time.Hour, // Abandoned parties expire after 24h
	}
}

func (c *groupCache) key(id string) string {
	return fmt.Sprintf("group:%s", id)
}

func (c *groupCache) Set(ctx context.Context, group *model.Group) error {
	data, err := json.Marshal(group)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(group.ID), data, c.ttl).Err()
}

func (c *groupCache) Get(ctx context.Context, id string) (*model.Group, error) {
	data, err := c.client.Get(ctx, c.key(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var group model.Group
	if err := json.Unmarshal([]byte(data), &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *groupCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
