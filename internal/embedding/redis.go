package embedding

import (
	"context"
	"encoding/binary"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shelfsearch/shelf-search/internal/config"
	"github.com/shelfsearch/shelf-search/internal/pkg/errors"
	"github.com/shelfsearch/shelf-search/internal/pkg/hash"
	"github.com/shelfsearch/shelf-search/internal/pkg/logger"
)

const redisKeyPrefix = "shelf:embed:"

// RedisCache is a Redis-backed embedding cache shared between instances.
// Vectors are stored as little-endian float32 blobs.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg config.CacheConfig, log *logger.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, errors.ValidationError("invalid redis URL: " + err.Error())
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.ServiceUnavailableError("redis").WithDetail("url", cfg.RedisURL)
	}

	return &RedisCache{
		client: client,
		ttl:    time.Duration(cfg.TTLSec) * time.Second,
		log:    log,
	}, nil
}

// Get retrieves an embedding. Redis failures degrade to a cache miss.
func (c *RedisCache) Get(ctx context.Context, text string) ([]float32, bool) {
	key := redisKeyPrefix + hash.SHA256String(text)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.WithError(err).Warn("redis cache read failed")
		}
		return nil, false
	}

	vector, err := decodeVector(data)
	if err != nil {
		c.log.WithError(err).Warn("corrupt cache entry, dropping", "key", key)
		c.client.Del(ctx, key)
		return nil, false
	}

	return vector, true
}

// Set stores an embedding with the configured TTL. Failures are logged,
// not surfaced; the cache is best effort.
func (c *RedisCache) Set(ctx context.Context, text string, vector []float32) {
	key := redisKeyPrefix + hash.SHA256String(text)

	if err := c.client.Set(ctx, key, encodeVector(vector), c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("redis cache write failed")
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func encodeVector(vector []float32) []byte {
	data := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return data
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, errors.InternalError("vector blob length not a multiple of 4", nil)
	}
	vector := make([]float32, len(data)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vector, nil
}
