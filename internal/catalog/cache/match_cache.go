package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// MatchCache guarda a projeção montada de um match no Redis.
// A ingestão invalida a chave do evento; o leitor repovoa no próximo miss.
type MatchCache struct{ R *redis.Client }

func New(r *redis.Client) *MatchCache { return &MatchCache{R: r} }

func keyMatch(eventID int64) string { return "catalog:match:" + strconv.FormatInt(eventID, 10) }

func (c *MatchCache) GetMatch(ctx context.Context, eventID int64, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyMatch(eventID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *MatchCache) SetMatch(ctx context.Context, eventID int64, v any, ttl time.Duration) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyMatch(eventID), b, ttl).Err()
}

func (c *MatchCache) Invalidate(ctx context.Context, eventID int64) error {
	return c.R.Del(ctx, keyMatch(eventID)).Err()
}
