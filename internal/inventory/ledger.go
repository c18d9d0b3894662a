// Package inventory 维护按规格记账的库存。
//
// 所有扣减都是单条 SQL 的条件更新（stock >= qty 才减），调用方负责把一个订单的
// 全部扣减放进同一个事务：任意一行失败，整个事务回滚。
package inventory

import (
	"errors"
	"fmt"

	"dryfruit_store/internal/model"

	"gorm.io/gorm"
)

// Line 一次库存变动：某商品某规格的数量。
type Line struct {
	ProductID uint
	SizeID    uint
	Quantity  int
}

// ShortfallError 条件扣减未命中：库存在校验之后被别的订单抢走了。
type ShortfallError struct {
	Line Line
}

func (e *ShortfallError) Error() string {
	return fmt.Sprintf("insufficient stock for size %d (product %d): wanted %d", e.Line.SizeID, e.Line.ProductID, e.Line.Quantity)
}

// ErrUnknownSize 调整库存时规格不存在。
var ErrUnknownSize = errors.New("inventory: size not found")

// Reserve 逐行原子扣减库存并累加销量。必须在事务内调用。
func Reserve(tx *gorm.DB, lines []Line) error {
	for _, l := range lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("inventory: quantity must be > 0, got %d", l.Quantity)
		}
		res := tx.Model(&model.ProductSize{}).
			Where("id = ? AND stock >= ?", l.SizeID, l.Quantity).
			UpdateColumn("stock", gorm.Expr("stock - ?", l.Quantity))
		if res.Error != nil {
			return fmt.Errorf("decrement stock size=%d: %w", l.SizeID, res.Error)
		}
		if res.RowsAffected == 0 {
			return &ShortfallError{Line: l}
		}
		if err := tx.Model(&model.Product{}).
			Where("id = ?", l.ProductID).
			UpdateColumn("sold_count", gorm.Expr("sold_count + ?", l.Quantity)).Error; err != nil {
			return fmt.Errorf("increment sold_count product=%d: %w", l.ProductID, err)
		}
	}
	return nil
}

// Release 是 Reserve 的逆操作，返回实际回补成功的行数。
// 规格已被删除的行会被跳过（无处可补），销量不会减到负数。
func Release(tx *gorm.DB, lines []Line) (int, error) {
	restored := 0
	for _, l := range lines {
		if l.SizeID == 0 || l.Quantity <= 0 {
			continue
		}
		res := tx.Model(&model.ProductSize{}).
			Where("id = ?", l.SizeID).
			UpdateColumn("stock", gorm.Expr("stock + ?", l.Quantity))
		if res.Error != nil {
			return restored, fmt.Errorf("increment stock size=%d: %w", l.SizeID, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}
		restored++
		if err := tx.Model(&model.Product{}).
			Where("id = ?", l.ProductID).
			UpdateColumn("sold_count", gorm.Expr("CASE WHEN sold_count >= ? THEN sold_count - ? ELSE 0 END", l.Quantity, l.Quantity)).Error; err != nil {
			return restored, fmt.Errorf("decrement sold_count product=%d: %w", l.ProductID, err)
		}
	}
	return restored, nil
}

// SetStock 管理员直接改库存（盘点）。
func SetStock(tx *gorm.DB, productID, sizeID uint, stock int) error {
	if stock < 0 {
		return fmt.Errorf("inventory: stock must be >= 0, got %d", stock)
	}
	res := tx.Model(&model.ProductSize{}).
		Where("id = ? AND product_id = ?", sizeID, productID).
		UpdateColumn("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("set stock size=%d: %w", sizeID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUnknownSize
	}
	return nil
}

// LowStock 返回库存不高于阈值的规格，管理后台预警用。
func LowStock(db *gorm.DB, threshold int) ([]model.ProductSize, error) {
	var sizes []model.ProductSize
	err := db.Joins("JOIN products ON products.id = product_sizes.product_id AND products.is_active = ?", true).
		Where("product_sizes.stock <= ?", threshold).
		Order("product_sizes.stock ASC").
		Find(&sizes).Error
	return sizes, err
}
