package checkout

import (
	"errors"
	"strings"

	"dryfruit_store/pkg/apperr"
)

type FailureKind string

const (
	FailureInsufficientStock  FailureKind = "insufficient_stock"
	FailureInvalidCart        FailureKind = "invalid_cart"
	FailureProductUnavailable FailureKind = "product_unavailable"
	FailureGeneric            FailureKind = "generic"
)

var guidance = map[FailureKind]string{
	FailureInsufficientStock:  "Some items in your cart are out of stock. Please update quantities and try again.",
	FailureInvalidCart:        "Your cart is empty or invalid. Please add items again.",
	FailureProductUnavailable: "A product in your cart is no longer available. Please remove it and try again.",
	FailureGeneric:            "We could not place your order. Please contact support with your UTR number.",
}

// Failure 下单失败的分类结果，Message 直接展示给用户。
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

var codeKinds = map[string]FailureKind{
	"insufficient_stock": FailureInsufficientStock,
	"no_valid_items":     FailureInvalidCart,
	"invalid_quantity":   FailureInvalidCart,
	"product_not_found":  FailureProductUnavailable,
	"product_inactive":   FailureProductUnavailable,
	"size_unavailable":   FailureProductUnavailable,
}

// Classify 先看服务端错误码，没有错误码时退回到文案子串匹配。
func Classify(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}

	kind := FailureGeneric
	code, msg := "", err.Error()
	var apiErr *APIError
	var appErr *apperr.Error
	switch {
	case errors.As(err, &apiErr):
		code, msg = apiErr.Code, apiErr.Msg
	case errors.As(err, &appErr):
		code, msg = appErr.Code, appErr.Msg
	}

	if k, ok := codeKinds[code]; ok {
		kind = k
	} else {
		switch {
		case strings.Contains(msg, "Insufficient stock"):
			kind = FailureInsufficientStock
		case strings.Contains(msg, "No valid items"):
			kind = FailureInvalidCart
		case strings.Contains(msg, "Product not found"):
			kind = FailureProductUnavailable
		}
	}
	return &Failure{Kind: kind, Message: guidance[kind], Err: err}
}
