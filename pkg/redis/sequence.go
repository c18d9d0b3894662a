package redis

import (
	"context"
	"time"

	rd "github.com/redis/go-redis/v9"
)

// NextOrderSeq 返回当天的下一个订单序号（从 1 开始）。
// key 保留 48 小时，跨天后旧 key 自然过期。
func NextOrderSeq(ctx context.Context, rdb *rd.Client, day string) (int64, error) {
	key := OrderSeqKey(day)
	pipe := rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
