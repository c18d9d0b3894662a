package order

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"dryfruit_store/pkg/logger"
	rediskey "dryfruit_store/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NumberGenerator 订单号：DF + yyMMddHHmmss + 4 位序号。
// 序号来自 Redis 按天自增；Redis 不可用时退化为随机后缀，唯一性由数据库唯一索引兜底。
type NumberGenerator struct {
	rdb *rd.Client
	now func() time.Time
}

func NewNumberGenerator(rdb *rd.Client) *NumberGenerator {
	return &NumberGenerator{rdb: rdb, now: time.Now}
}

func (g *NumberGenerator) Next(ctx context.Context) string {
	now := g.now()
	suffix := -1
	if g.rdb != nil {
		seq, err := rediskey.NextOrderSeq(ctx, g.rdb, now.Format("20060102"))
		if err == nil {
			suffix = int(seq % 10000)
		} else {
			logger.Warn("order seq fallback to random", zap.Error(err))
		}
	}
	if suffix < 0 {
		suffix = rand.IntN(10000)
	}
	return fmt.Sprintf("DF%s%04d", now.Format("060102150405"), suffix)
}
