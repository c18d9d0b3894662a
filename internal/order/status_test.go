package order

import (
	"testing"

	"dryfruit_store/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to model.OrderStatus
		want     bool
	}{
		{model.OrderStatusDraft, model.OrderStatusPending, true},
		{model.OrderStatusDraft, model.OrderStatusConfirmed, false},
		{model.OrderStatusPending, model.OrderStatusConfirmed, true},
		{model.OrderStatusPending, model.OrderStatusShipped, false},
		{model.OrderStatusConfirmed, model.OrderStatusShipped, true},
		{model.OrderStatusProcessing, model.OrderStatusCancelled, true},
		{model.OrderStatusShipped, model.OrderStatusCancelled, false},
		{model.OrderStatusShipped, model.OrderStatusReturned, true},
		{model.OrderStatusDelivered, model.OrderStatusReturned, true},
		{model.OrderStatusCancelled, model.OrderStatusPending, false},
		{model.OrderStatusReturned, model.OrderStatusDelivered, false},
		{model.OrderStatusPending, model.OrderStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminalStatusesHaveNoExit(t *testing.T) {
	assert.Empty(t, NextStatuses(model.OrderStatusCancelled))
	assert.Empty(t, NextStatuses(model.OrderStatusReturned))

	next := NextStatuses(model.OrderStatusPending)
	next[0] = model.OrderStatusReturned
	assert.Equal(t, model.OrderStatusConfirmed, NextStatuses(model.OrderStatusPending)[0], "returned slice is a copy")
}

func TestCancellable(t *testing.T) {
	for _, s := range model.OrderStatuses() {
		want := s == model.OrderStatusPending || s == model.OrderStatusConfirmed
		assert.Equal(t, want, Cancellable(s), s)
	}
}

func TestHoldsStock(t *testing.T) {
	assert.False(t, model.OrderStatusDraft.HoldsStock())
	assert.False(t, model.OrderStatusCancelled.HoldsStock())
	assert.True(t, model.OrderStatusPending.HoldsStock())
	assert.True(t, model.OrderStatusProcessing.HoldsStock())
	assert.True(t, model.OrderStatusReturned.HoldsStock())
}
