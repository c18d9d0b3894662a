// Package catalog 商品列表查询与 Redis 缓存。
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"dryfruit_store/internal/model"
	"dryfruit_store/pkg/logger"
	rediskey "dryfruit_store/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cache 版本号式缓存：列表 key 带版本号，任何写操作 INCR 版本即整体失效，
// 旧版本的 key 等 TTL 自然过期。
type Cache struct {
	rdb *rd.Client
	ttl time.Duration
}

func NewCache(rdb *rd.Client, ttl time.Duration) *Cache {
	return &Cache{rdb: rdb, ttl: ttl}
}

// List 先读缓存，未命中再 load 并回写。Redis 故障时直接走 load。
func (c *Cache) List(ctx context.Context, category string, load func() ([]model.Product, error)) ([]model.Product, error) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return load()
	}

	ver, err := c.rdb.Get(ctx, rediskey.CatalogVersionKey()).Int64()
	if err != nil && !errors.Is(err, rd.Nil) {
		logger.Warn("catalog cache version", zap.Error(err))
		return load()
	}
	key := rediskey.CatalogListKey(ver, category)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var list []model.Product
		if err := json.Unmarshal(b, &list); err == nil {
			return list, nil
		}
	}

	list, err := load()
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(list); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
			logger.Warn("catalog cache set", zap.String("key", key), zap.Error(err))
		}
	}
	return list, nil
}

// Invalidate 库存或商品信息变化后调用。
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Incr(ctx, rediskey.CatalogVersionKey()).Err(); err != nil {
		logger.Warn("catalog cache invalidate", zap.Error(err))
	}
}

// ListActive 在售商品，category 为分类 slug，空表示全部。
func ListActive(db *gorm.DB, category string) ([]model.Product, error) {
	q := db.Model(&model.Product{}).
		Preload("Sizes", func(db *gorm.DB) *gorm.DB { return db.Order("price ASC") }).
		Where("products.is_active = ?", true)
	if category != "" {
		q = q.Joins("JOIN categories ON categories.id = products.category_id").
			Where("categories.slug = ?", category)
	}
	var list []model.Product
	err := q.Order("products.sold_count DESC, products.id ASC").Find(&list).Error
	return list, err
}
