package checkout

import (
	"errors"
	"fmt"
	"testing"

	"dryfruit_store/internal/order"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"api code", &APIError{Status: 400, Code: "insufficient_stock", Msg: "Insufficient stock"}, FailureInsufficientStock},
		{"api code wins over text", &APIError{Status: 404, Code: "product_not_found", Msg: "Insufficient stock"}, FailureProductUnavailable},
		{"inactive product", &APIError{Status: 400, Code: "product_inactive"}, FailureProductUnavailable},
		{"empty cart", &APIError{Status: 400, Code: "no_valid_items", Msg: "No valid items in order"}, FailureInvalidCart},
		{"text only", errors.New("Insufficient stock for Cashews (500g)"), FailureInsufficientStock},
		{"text no valid items", errors.New("No valid items in order"), FailureInvalidCart},
		{"text product not found", &APIError{Status: 404, Msg: "Product not found: #9"}, FailureProductUnavailable},
		{"local service error", fmt.Errorf("place: %w", order.ErrSizeUnavailable), FailureProductUnavailable},
		{"transport", errors.New("dial tcp: connection refused"), FailureGeneric},
		{"server error", &APIError{Status: 500, Code: "internal_error"}, FailureGeneric},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := Classify(tc.err)
			assert.Equal(t, tc.want, f.Kind)
			assert.Equal(t, guidance[tc.want], f.Message)
			assert.ErrorIs(t, f, tc.err)
		})
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	f := Classify(&APIError{Code: "invalid_quantity"})
	assert.Same(t, f, Classify(f))
	assert.Equal(t, FailureInvalidCart, f.Kind)
}
