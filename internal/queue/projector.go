package queue

import (
	"context"
	"time"

	"dryfruit_store/internal/model"
	rediskey "dryfruit_store/pkg/redis"

	rd "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SalesProjector 把订单事件累加到 daily_sales，供管理后台展示。
// rdb 用于事件去重，可为 nil（仅测试场景）。
type SalesProjector struct {
	db   *gorm.DB
	rdb  *rd.Client
	name string
	loc  *time.Location
}

func NewSalesProjector(db *gorm.DB, rdb *rd.Client) *SalesProjector {
	return &SalesProjector{db: db, rdb: rdb, name: "sales", loc: time.Local}
}

func (p *SalesProjector) Handle(ctx context.Context, ev OrderEvent) error {
	var orders, cancelled int64
	revenue := decimal.Zero
	switch ev.Type {
	case EventOrderPlaced:
		orders, revenue = 1, ev.Total
	case EventOrderCancelled:
		cancelled = 1
		// 草稿被取消时从未计入营收
		if prev, ok := model.ParseOrderStatus(ev.PrevStatus); ok && prev.HoldsStock() {
			revenue = ev.Total.Neg()
		}
	default:
		return nil
	}

	if p.rdb != nil {
		first, err := rediskey.MarkEventOnce(ctx, p.rdb, p.name, ev.ID)
		if err != nil {
			return err
		}
		if !first {
			return nil
		}
	}

	row := model.DailySales{
		Day:       ev.At.In(p.loc).Format("2006-01-02"),
		Orders:    orders,
		Cancelled: cancelled,
		Revenue:   revenue,
	}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "day"}},
		DoUpdates: clause.Assignments(map[string]any{
			"orders":     gorm.Expr("daily_sales.orders + ?", orders),
			"cancelled":  gorm.Expr("daily_sales.cancelled + ?", cancelled),
			"revenue":    gorm.Expr("daily_sales.revenue + ?", revenue),
			"updated_at": time.Now(),
		}),
	}).Create(&row).Error
	if err != nil && p.rdb != nil {
		_ = rediskey.UnmarkEvent(ctx, p.rdb, p.name, ev.ID)
	}
	return err
}
