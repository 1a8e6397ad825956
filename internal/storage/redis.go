package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chess-analytica/internal/codec"
	"chess-analytica/internal/core"
	"chess-analytica/internal/player"
)

const redisPrefix = "analytica:"

// RedisCache keeps player snapshots as compressed JSON values with a TTL
type RedisCache struct {
	rdb    *redis.Client
	codec  *codec.Codec
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache connects to redisURL (redis:// or rediss://) and pings it
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration, logger zerolog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	c, err := codec.New()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return &RedisCache{
		rdb:    rdb,
		codec:  c,
		ttl:    ttl,
		logger: logger.With().Str("component", "redis").Logger(),
	}, nil
}

func playerKey(username string) string { return redisPrefix + "player:" + player.Key(username) }
func indexKey() string                 { return redisPrefix + "players" }

// Save stores a snapshot and indexes its username
func (c *RedisCache) Save(ctx context.Context, src *player.Source) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	packed := c.codec.Compress(raw)

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, playerKey(src.Username), packed, c.ttl)
	pipe.SAdd(ctx, indexKey(), player.Key(src.Username))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}

	c.logger.Debug().
		Str("username", src.Username).
		Int("bytes", len(packed)).
		Msg("snapshot stored")
	return nil
}

// Load returns a snapshot, failing with core.ErrCacheMiss when absent or expired
func (c *RedisCache) Load(ctx context.Context, username string) (*player.Source, error) {
	packed, err := c.rdb.Get(ctx, playerKey(username)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", username, core.ErrCacheMiss)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	raw, err := c.codec.Decompress(packed)
	if err != nil {
		return nil, err
	}
	var src player.Source
	if err := json.Unmarshal(raw, &src); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &src, nil
}

func (c *RedisCache) Delete(ctx context.Context, username string) error {
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, playerKey(username))
	pipe.SRem(ctx, indexKey(), player.Key(username))
	_, err := pipe.Exec(ctx)
	return err
}

// Players lists indexed usernames whose snapshot has not expired
func (c *RedisCache) Players(ctx context.Context) ([]string, error) {
	names, err := c.rdb.SMembers(ctx, indexKey()).Result()
	if err != nil {
		return nil, err
	}

	var live []string
	for _, name := range names {
		n, err := c.rdb.Exists(ctx, playerKey(name)).Result()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			c.rdb.SRem(ctx, indexKey(), name)
			continue
		}
		live = append(live, name)
	}
	sort.Strings(live)
	return live, nil
}

func (c *RedisCache) Close() error {
	c.codec.Close()
	return c.rdb.Close()
}
