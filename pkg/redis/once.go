package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// luaMarkOnce 通过 SETNX 保证同一个 key 只会被标记一次。
const luaMarkOnce = `
local key = KEYS[1]
local ttlSec = tonumber(ARGV[1])

if redis.call('SETNX', key, '1') == 1 then
  redis.call('EXPIRE', key, ttlSec)
  return 1
end
return 0
`

// MarkEventOnce 幂等标记：
// - 首次标记返回 true
// - 重复标记返回 false（调用方应跳过处理）
func MarkEventOnce(ctx context.Context, rdb *rd.Client, consumer, eventID string) (bool, error) {
	key := EventOnceKey(consumer, eventID)
	const ttlSeconds = int64((7 * 24 * time.Hour) / time.Second)

	n, err := rdb.Eval(ctx, luaMarkOnce, []string{key}, ttlSeconds).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// UnmarkEvent 在处理失败时撤销标记，让消息重投后还能再处理。
func UnmarkEvent(ctx context.Context, rdb *rd.Client, consumer, eventID string) error {
	return rdb.Del(ctx, EventOnceKey(consumer, eventID)).Err()
}
