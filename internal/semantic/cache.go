package semantic

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/huangsam/repolens/internal/contract"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultCacheTTL is how long cached embeddings live in redis.
const DefaultCacheTTL = 7 * 24 * time.Hour

// RedisCache wraps an Embedder and memoizes its vectors in redis. Cache failures
// are logged and fall through to the wrapped Embedder.
type RedisCache struct {
	next Embedder
	rdb  *redis.Client
	ttl  time.Duration
}

var _ Embedder = &RedisCache{} // Compile-time check

// NewRedisCache connects to the redis server at redisURL (redis://host:port/db).
func NewRedisCache(next Embedder, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return newRedisCacheWithClient(next, redis.NewClient(opts), ttl), nil
}

func newRedisCacheWithClient(next Embedder, rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{next: next, rdb: rdb, ttl: ttl}
}

// Model returns the model of the wrapped Embedder.
func (c *RedisCache) Model() string {
	return c.next.Model()
}

// cacheKey is sha256(model + NUL + text) so keys stay short and per-model.
func cacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return "repolens:emb:" + hex.EncodeToString(sum[:])
}

// Embed returns cached vectors where present and embeds the rest in one call.
func (c *RedisCache) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	model := c.next.Model()
	keys := make([]string, len(texts))
	for i, text := range texts {
		keys[i] = cacheKey(model, text)
	}

	vectors := make([][]float32, len(texts))
	cached, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		contract.LogDebug("embedding cache unavailable", zap.Error(err))
		cached = nil
	}

	var missing []int
	for i := range texts {
		if i < len(cached) {
			if s, ok := cached[i].(string); ok {
				var vec []float32
				if json.Unmarshal([]byte(s), &vec) == nil {
					vectors[i] = vec
					continue
				}
			}
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return vectors, nil
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}
	fresh, err := c.next.Embed(ctx, pending)
	if err != nil {
		return nil, err
	}

	pipe := c.rdb.Pipeline()
	for j, i := range missing {
		vectors[i] = fresh[j]
		if data, err := json.Marshal(fresh[j]); err == nil {
			pipe.Set(ctx, keys[i], data, c.ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		contract.LogDebug("embedding cache write failed", zap.Error(err))
	}
	return vectors, nil
}

// Close closes the redis connection pool.
func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
