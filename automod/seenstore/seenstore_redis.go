package seenstore

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

var redisSeenPrefix string = "seen/"

// Durable seen store. Values are the unix timestamp the post was first recorded; keys never expire.
type RedisSeenStore struct {
	Client *redis.Client
	// process-local cache of positive lookups. records are never removed, so hits never go stale.
	local cache.LocalCache
}

var _ SeenStore = (*RedisSeenStore)(nil)

func NewRedisSeenStore(redisURL string) (*RedisSeenStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisSeenStore{
		Client: rdb,
		local:  cache.NewTinyLFU(10_000, 24*time.Hour),
	}, nil
}

func (s *RedisSeenStore) Has(ctx context.Context, postID string) (bool, error) {
	key := redisSeenPrefix + postID
	if _, ok := s.local.Get(key); ok {
		return true, nil
	}
	n, err := s.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n > 0 {
		s.local.Set(key, []byte{1})
		return true, nil
	}
	return false, nil
}

func (s *RedisSeenStore) Record(ctx context.Context, postID string) error {
	key := redisSeenPrefix + postID
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	// NX keeps the original timestamp when a post is recorded twice
	if err := s.Client.SetNX(ctx, key, ts, 0).Err(); err != nil {
		return err
	}
	s.local.Set(key, []byte{1})
	return nil
}
