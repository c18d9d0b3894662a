// Package testutil 测试用的内存数据库与 Redis。
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"dryfruit_store/internal/database"
	"dryfruit_store/internal/model"

	"github.com/alicebob/miniredis/v2"
	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewDB 每个测试一个独立的内存库。单连接，事务内的代码只能用 tx。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func NewRedis(t testing.TB) (*rd.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := rd.NewClient(&rd.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// Size 构造规格，价格单位为卢比。
func Size(label string, price int64, stock int) model.ProductSize {
	return model.ProductSize{
		Label:         label,
		Price:         decimal.NewFromInt(price),
		OriginalPrice: decimal.NewFromInt(price),
		Stock:         stock,
	}
}

// CreateProduct 创建在售商品。
func CreateProduct(t testing.TB, db *gorm.DB, name string, sizes ...model.ProductSize) *model.Product {
	t.Helper()
	p := &model.Product{Name: name, Slug: slug(name), IsActive: true, Sizes: sizes}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Stock 读取某规格当前库存。
func Stock(t testing.TB, db *gorm.DB, sizeID uint) int {
	t.Helper()
	var s model.ProductSize
	require.NoError(t, db.First(&s, sizeID).Error)
	return s.Stock
}

func slug(name string) string {
	b := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		ch := name[i]
		switch {
		case ch >= 'A' && ch <= 'Z':
			b = append(b, ch+'a'-'A')
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b = append(b, ch)
		default:
			b = append(b, '-')
		}
	}
	return string(b)
}
