package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus 订单状态，只能经由状态流转接口修改。
type OrderStatus string

const (
	OrderStatusDraft      OrderStatus = "draft"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusReturned   OrderStatus = "returned"
)

var orderStatuses = []OrderStatus{
	OrderStatusDraft, OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
	OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled, OrderStatusReturned,
}

// OrderStatuses 返回全部状态（按生命周期顺序）。
func OrderStatuses() []OrderStatus { return append([]OrderStatus(nil), orderStatuses...) }

// ParseOrderStatus 校验字符串是否为合法状态。
func ParseOrderStatus(s string) (OrderStatus, bool) {
	for _, st := range orderStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// HoldsStock 表示处于该状态的订单占用着库存。
// 草稿不占库存，取消后库存已回补。
func (s OrderStatus) HoldsStock() bool {
	return s != OrderStatusDraft && s != OrderStatusCancelled
}

type PaymentMethod string

const (
	PaymentUPIPhonePe PaymentMethod = "upi_phonepe"
	PaymentUPIGPay    PaymentMethod = "upi_gpay"
	PaymentUPIPaytm   PaymentMethod = "upi_paytm"
	PaymentUPIBHIM    PaymentMethod = "upi_bhim"
	PaymentUPIOther   PaymentMethod = "upi_other"
	PaymentCard       PaymentMethod = "card"
	PaymentCOD        PaymentMethod = "cod"
	PaymentPending    PaymentMethod = "pending"
)

var paymentMethods = []PaymentMethod{
	PaymentUPIPhonePe, PaymentUPIGPay, PaymentUPIPaytm, PaymentUPIBHIM, PaymentUPIOther,
	PaymentCard, PaymentCOD, PaymentPending,
}

func (m PaymentMethod) Valid() bool {
	for _, pm := range paymentMethods {
		if pm == m {
			return true
		}
	}
	return false
}

func (m PaymentMethod) IsUPI() bool {
	switch m {
	case PaymentUPIPhonePe, PaymentUPIGPay, PaymentUPIPaytm, PaymentUPIBHIM, PaymentUPIOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Address 收货信息的反规范化副本，与用户账户无关。
type Address struct {
	FullName     string `gorm:"size:128" json:"full_name"`
	Phone        string `gorm:"size:32;index" json:"phone"`
	Email        string `gorm:"size:128" json:"email,omitempty"`
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2,omitempty"`
	City         string `gorm:"size:64" json:"city"`
	State        string `gorm:"size:64" json:"state"`
	Pincode      string `gorm:"size:16" json:"pincode"`
}

type Payment struct {
	Method        PaymentMethod `gorm:"size:32;not null" json:"method"`
	Status        PaymentStatus `gorm:"size:16;not null" json:"status"`
	TransactionID string        `gorm:"size:64" json:"transaction_id,omitempty"`
	UTRNumber     string        `gorm:"size:64;index" json:"utr_number,omitempty"`
}

// Pricing 下单时一次性计算并固化：Total = Subtotal - Discount + ShippingCharges + Tax。
type Pricing struct {
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Discount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount"`
	ShippingCharges decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_charges"`
	Tax             decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax"`
	Total           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
}

// Balanced 校验金额恒等式。
func (p Pricing) Balanced() bool {
	return p.Subtotal.Sub(p.Discount).Add(p.ShippingCharges).Add(p.Tax).Equal(p.Total)
}

// Order 订单。没有软删除字段：订单永不物理删除。
type Order struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OrderNumber string `gorm:"size:32;uniqueIndex;not null" json:"order_number"`
	// UserID 为空表示游客下单
	UserID string      `gorm:"size:64;index" json:"user_id,omitempty"`
	Status OrderStatus `gorm:"size:16;not null;index" json:"status"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`
	Payment         Payment `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`
	Pricing         Pricing `gorm:"embedded" json:"pricing"`

	OrderNote      string     `gorm:"size:512" json:"order_note,omitempty"`
	TrackingNumber string     `gorm:"size:64" json:"tracking_number,omitempty"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt    *time.Time `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelReason   string     `gorm:"size:255" json:"cancel_reason,omitempty"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID" json:"status_history"`
}

func (Order) TableName() string { return "orders" }

// OrderItem 下单时的价格快照，之后不再回读商品价格。
type OrderItem struct {
	ID      uint `gorm:"primarykey" json:"id"`
	OrderID uint `gorm:"not null;index" json:"order_id"`

	ProductID uint `gorm:"not null;index" json:"product_id"`
	// SizeID 为 0 表示草稿里无法识别的商品行
	SizeID            uint            `gorm:"not null;default:0" json:"size_id"`
	ProductName       string          `gorm:"size:128;not null" json:"product_name"`
	Size              string          `gorm:"size:32;not null" json:"size"`
	Quantity          int             `gorm:"not null" json:"quantity"`
	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	UnitOriginalPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_original_price"`
}

func (OrderItem) TableName() string { return "order_items" }

// LineTotal = UnitPrice * Quantity
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderStatusHistory 只追加的状态审计记录。
type OrderStatusHistory struct {
	ID      uint        `gorm:"primarykey" json:"-"`
	OrderID uint        `gorm:"not null;index" json:"-"`
	Status  OrderStatus `gorm:"size:16;not null" json:"status"`
	At      time.Time   `gorm:"not null" json:"at"`
	Note    string      `gorm:"size:255" json:"note,omitempty"`
	Actor   string      `gorm:"size:96;not null" json:"actor"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
