package model

import "time"

// Cart 登录用户的服务端购物车，下单成功后清空。
type Cart struct {
	UserID    string     `gorm:"primaryKey;size:64" json:"user_id"`
	UpdatedAt time.Time  `json:"updated_at"`
	Items     []CartItem `gorm:"serializer:json;type:text" json:"items"`
}

func (Cart) TableName() string { return "carts" }

type CartItem struct {
	ProductID uint   `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}
