package order

import "dryfruit_store/internal/model"

// transitions 显式列出允许的 (from, to)。cancelled / returned 为终态。
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusDraft:      {model.OrderStatusPending, model.OrderStatusCancelled},
	model.OrderStatusPending:    {model.OrderStatusConfirmed, model.OrderStatusProcessing, model.OrderStatusCancelled},
	model.OrderStatusConfirmed:  {model.OrderStatusProcessing, model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusProcessing: {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:    {model.OrderStatusDelivered, model.OrderStatusReturned},
	model.OrderStatusDelivered:  {model.OrderStatusReturned},
}

// CanTransition 判断 from -> to 是否允许。
func CanTransition(from, to model.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// NextStatuses 返回 from 可去往的状态，供后台下拉框使用。
func NextStatuses(from model.OrderStatus) []model.OrderStatus {
	return append([]model.OrderStatus(nil), transitions[from]...)
}

// Cancellable 客户自助取消只允许在发货准备之前。
func Cancellable(s model.OrderStatus) bool {
	return s == model.OrderStatusPending || s == model.OrderStatusConfirmed
}
