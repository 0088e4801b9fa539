package settings

import (
	"context"
	"errors"
	"time"

	"crm/schemas"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const cacheKeyPrefix = "crm:settings:"

// Cache is a read-through Redis cache of CRMSettings documents.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(orgID bson.ObjectID) string { return cacheKeyPrefix + orgID.Hex() }

func (c *Cache) Get(ctx context.Context, orgID bson.ObjectID) (*schemas.CRMSettings, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(orgID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var s schemas.CRMSettings
	if err := bson.Unmarshal(data, &s); err != nil {
		return nil, false, err
	}
	return &s, true, nil
}

func (c *Cache) Set(ctx context.Context, s *schemas.CRMSettings) error {
	data, err := bson.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(s.OrganizationID), data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, orgID bson.ObjectID) error {
	return c.client.Del(ctx, cacheKey(orgID)).Err()
}
