package clawsec

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOracleCache shares the oracle sub-cache across multiple engine
// processes running behind the same Redis instance. Still disjoint from,
// and configured with a shorter TTL than, the engine's DecisionCache (§9).
type RedisOracleCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisOracleCache(client *redis.Client, ttl time.Duration) *RedisOracleCache {
	return &RedisOracleCache{client: client, ttl: ttl, prefix: "clawsec:oracle:"}
}

func (c *RedisOracleCache) Get(key string) (OracleResponse, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return OracleResponse{}, false
	}
	var resp OracleResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return OracleResponse{}, false
	}
	return resp, true
}

func (c *RedisOracleCache) Set(key string, resp OracleResponse) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, raw, c.ttl)
}
