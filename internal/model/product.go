package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品。库存不在商品上，而是按规格（ProductSize）分别记账。
type Product struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name        string `gorm:"size:128;not null" json:"name"`
	Slug        string `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	Description string `gorm:"type:text" json:"description"`
	CategoryID  *uint  `gorm:"index" json:"category_id,omitempty"`
	ImageURL    string `gorm:"size:512" json:"image_url"`
	IsActive    bool   `gorm:"not null;index" json:"is_active"`
	// SoldCount 累计销量，下单 +qty，取消 -qty
	SoldCount int64 `gorm:"not null;default:0" json:"sold_count"`

	Sizes []ProductSize `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"sizes"`
}

func (Product) TableName() string { return "products" }

// SizeByLabel 按规格名精确匹配，不存在返回 nil。
func (p *Product) SizeByLabel(label string) *ProductSize {
	for i := range p.Sizes {
		if p.Sizes[i].Label == label {
			return &p.Sizes[i]
		}
	}
	return nil
}

// ProductSize 是一个独立的库存单元：(规格名, 售价, 原价, 库存)。
type ProductSize struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UpdatedAt time.Time `json:"updated_at"`

	ProductID     uint            `gorm:"not null;uniqueIndex:idx_product_size_label" json:"product_id"`
	Label         string          `gorm:"size:32;not null;uniqueIndex:idx_product_size_label" json:"label"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	OriginalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"original_price"`
	Stock         int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
}

func (ProductSize) TableName() string { return "product_sizes" }
