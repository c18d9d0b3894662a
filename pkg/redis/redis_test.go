package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*rd.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestNextOrderSeq(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := NextOrderSeq(ctx, rdb, "20261014")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := NextOrderSeq(ctx, rdb, "20261015")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got, "a new day starts over")

	assert.Equal(t, 48*time.Hour, mr.TTL(OrderSeqKey("20261014")))
}

func TestMarkEventOnce(t *testing.T) {
	rdb, mr := newClient(t)
	ctx := context.Background()

	first, err := MarkEventOnce(ctx, rdb, "sales", "e1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := MarkEventOnce(ctx, rdb, "sales", "e1")
	require.NoError(t, err)
	assert.False(t, again)

	other, err := MarkEventOnce(ctx, rdb, "audit", "e1")
	require.NoError(t, err)
	assert.True(t, other, "consumers are tracked separately")
	assert.Equal(t, 7*24*time.Hour, mr.TTL(EventOnceKey("sales", "e1")))

	require.NoError(t, UnmarkEvent(ctx, rdb, "sales", "e1"))
	retry, err := MarkEventOnce(ctx, rdb, "sales", "e1")
	require.NoError(t, err)
	assert.True(t, retry)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "dryfruit:catalog:v3:list:all", CatalogListKey(3, ""))
	assert.Equal(t, "dryfruit:catalog:v3:list:nuts", CatalogListKey(3, "nuts"))
	assert.Equal(t, "rate_limit:orders:ip:10.0.0.1", RateLimitKey("orders", "ip:10.0.0.1"))
}
