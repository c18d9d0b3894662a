package model

import "time"

type Category struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Slug        string    `gorm:"size:64;uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"size:512" json:"description,omitempty"`
}

func (Category) TableName() string { return "categories" }

// Review 每个用户对同一商品只能评价一次。
type Review struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ProductID uint      `gorm:"not null;uniqueIndex:idx_review_product_user" json:"product_id"`
	UserID    string    `gorm:"size:64;not null;uniqueIndex:idx_review_product_user" json:"user_id"`
	Name      string    `gorm:"size:64" json:"name"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   string    `gorm:"type:text" json:"comment"`
}

func (Review) TableName() string { return "reviews" }
