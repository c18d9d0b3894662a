package redis

import "fmt"

// OrderSeqKey 按天划分的订单流水号计数器。
func OrderSeqKey(day string) string {
	return fmt.Sprintf("dryfruit:order:seq:%s", day)
}

// CatalogVersionKey 商品列表缓存的版本号，写操作 INCR 即可整体失效。
func CatalogVersionKey() string {
	return "dryfruit:catalog:version"
}

// CatalogListKey 某一版本下的商品列表缓存，category 为空表示全部。
func CatalogListKey(version int64, category string) string {
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("dryfruit:catalog:v%d:list:%s", version, category)
}

// EventOnceKey 标记某个订单事件是否已被投影处理过。
func EventOnceKey(consumer, eventID string) string {
	return fmt.Sprintf("dryfruit:event:done:%s:%s", consumer, eventID)
}

// RateLimitKey 下单/查单接口的限流 key，subject 为 user:<id> 或 ip:<addr>。
func RateLimitKey(scope, subject string) string {
	return fmt.Sprintf("rate_limit:%s:%s", scope, subject)
}
