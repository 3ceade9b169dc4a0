package cachestore

import (
	"context"
)

type CacheStore interface {
	// Returns the cached value and whether it was found (and not expired).
	Get(ctx context.Context, name, key string) (string, bool, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

func cacheKey(name, key string) string {
	return name + "/" + key
}
