package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"dryfruit_store/pkg/logger"
	rediskey "dryfruit_store/pkg/redis"
	"dryfruit_store/pkg/response"

	"github.com/gin-gonic/gin"
	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// slidingWindow 以 ZSET 记录窗口内每次请求的毫秒时间戳。
// KEYS[1]=限流 key；ARGV: now(ms), 窗口(ms), member, limit
// 返回窗口内剩余次数，-1 表示已超限（本次不计入）。
var slidingWindow = rd.NewScript(`
local now = tonumber(ARGV[1])
local width = tonumber(ARGV[2])
local limit = tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - width)
local used = redis.call('ZCARD', KEYS[1])
if used >= limit then
  return -1
end
redis.call('ZADD', KEYS[1], now, ARGV[3])
redis.call('PEXPIRE', KEYS[1], width)
return limit - used - 1
`)

// RedisRateLimit 分布式限流：登录用户按 user_id，游客按 IP。
// Redis 出错时放行。
func RedisRateLimit(rdb *rd.Client, scope string, limit int, window time.Duration) gin.HandlerFunc {
	width := window.Milliseconds()
	if width < 1000 {
		width = 1000
	}
	return func(c *gin.Context) {
		subject := "ip:" + c.ClientIP()
		if claims := CurrentClaims(c); claims != nil {
			subject = "user:" + claims.UserID
		}
		key := rediskey.RateLimitKey(scope, subject)

		now := time.Now()
		member := fmt.Sprintf("%d-%d", now.UnixMilli(), now.UnixNano())
		left, err := slidingWindow.Run(c.Request.Context(), rdb, []string{key},
			now.UnixMilli(), width, member, limit).Int()
		if err != nil {
			logger.Warn("rate limit degraded", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if left < 0 {
			c.Header("Retry-After", strconv.FormatInt(width/1000, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Response{
				Code:  http.StatusTooManyRequests,
				Msg:   "Too many requests, please try again later",
				Error: "rate_limited",
			})
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(left))
		c.Next()
	}
}
