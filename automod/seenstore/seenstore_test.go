package seenstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testSeenStoreBasics(t *testing.T, ss SeenStore) {
	assert := assert.New(t)
	ctx := context.Background()

	ok, err := ss.Has(ctx, "abc123")
	assert.NoError(err)
	assert.False(ok)

	assert.NoError(ss.Record(ctx, "abc123"))
	ok, err = ss.Has(ctx, "abc123")
	assert.NoError(err)
	assert.True(ok)

	// idempotent
	assert.NoError(ss.Record(ctx, "abc123"))
	ok, err = ss.Has(ctx, "abc123")
	assert.NoError(err)
	assert.True(ok)

	ok, err = ss.Has(ctx, "def456")
	assert.NoError(err)
	assert.False(ok)
}

func TestMemSeenStoreBasics(t *testing.T) {
	testSeenStoreBasics(t, NewMemSeenStore())
}

func TestMemSeenStoreKeepsFirstTimestamp(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	ss := NewMemSeenStore()
	assert.NoError(ss.Record(ctx, "abc123"))
	first, ok := ss.RecordedAt("abc123")
	assert.True(ok)
	assert.NoError(ss.Record(ctx, "abc123"))
	second, ok := ss.RecordedAt("abc123")
	assert.True(ok)
	assert.Equal(first, second)

	_, ok = ss.RecordedAt("def456")
	assert.False(ok)
}

func TestSQLSeenStoreBasics(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	// every new connection to ":memory:" is a fresh database
	sqldb, err := db.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	ss, err := NewSQLSeenStore(db)
	require.NoError(t, err)
	testSeenStoreBasics(t, ss)
}

func TestRedisSeenStoreBasics(t *testing.T) {
	t.Skip("live test, need redis running locally")

	ss, err := NewRedisSeenStore("redis://localhost:6379/0")
	require.NoError(t, err)
	ctx := context.Background()
	ss.Client.Del(ctx, redisSeenPrefix+"abc123", redisSeenPrefix+"def456")
	testSeenStoreBasics(t, ss)
}
