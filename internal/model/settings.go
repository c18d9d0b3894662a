package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentSettingID 收款配置只有一行。
const PaymentSettingID = 1

// PaymentSetting 收款方信息，用于拼 UPI 深链。
type PaymentSetting struct {
	ID         uint      `gorm:"primarykey" json:"-"`
	UpdatedAt  time.Time `json:"updated_at"`
	UPIID      string    `gorm:"size:128;not null" json:"upi_id"`
	PayeeName  string    `gorm:"size:128;not null" json:"payee_name"`
	CODEnabled bool      `gorm:"not null" json:"cod_enabled"`
}

func (PaymentSetting) TableName() string { return "payment_settings" }

// DailySales 由订单事件投影出的日销售统计。
type DailySales struct {
	Day       string          `gorm:"primaryKey;size:10" json:"day"` // yyyy-mm-dd
	Orders    int64           `gorm:"not null;default:0" json:"orders"`
	Cancelled int64           `gorm:"not null;default:0" json:"cancelled"`
	Revenue   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"revenue"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (DailySales) TableName() string { return "daily_sales" }

// All 返回需要 AutoMigrate 的全部模型。
func All() []any {
	return []any{
		&Category{}, &Product{}, &ProductSize{},
		&Order{}, &OrderItem{}, &OrderStatusHistory{},
		&Review{}, &Cart{}, &PaymentSetting{}, &DailySales{},
	}
}
