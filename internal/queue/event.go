package queue

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	// EventOrderPlaced 订单进入 pending（直接下单或草稿转正），库存已扣减
	EventOrderPlaced EventType = "order.placed"
	// EventOrderStatusChanged 除取消以外的状态流转
	EventOrderStatusChanged EventType = "order.status_changed"
	// EventOrderCancelled 订单取消，库存已回补
	EventOrderCancelled EventType = "order.cancelled"
)

// OrderEvent 是写入 outbox 并转发到 Kafka 的订单事件。
type OrderEvent struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	OrderID     uint            `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	PrevStatus  string          `json:"prev_status,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Items       int             `json:"items"`
	Actor       string          `json:"actor"`
	At          time.Time       `json:"at"`
}

// Validate 做最小字段校验，防止消费者处理脏消息。
func (e OrderEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	switch e.Type {
	case EventOrderPlaced, EventOrderStatusChanged, EventOrderCancelled:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.OrderID == 0 {
		return fmt.Errorf("order_id is required")
	}
	if e.OrderNumber == "" {
		return fmt.Errorf("order_number is required")
	}
	if e.Status == "" {
		return fmt.Errorf("status is required")
	}
	if e.At.IsZero() {
		return fmt.Errorf("at is required")
	}
	return nil
}
