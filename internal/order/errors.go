package order

import (
	"net/http"

	"dryfruit_store/pkg/apperr"
)

// 业务错误。文案里的 "Insufficient stock" / "No valid items" / "Product not found"
// 会被前端按子串识别，修改时需同步客户端。
var (
	ErrNoItems            = apperr.Validation("no_valid_items", "No valid items in order")
	ErrInvalidQuantity    = apperr.Validation("invalid_quantity", "Quantity must be between 1 and 1000")
	ErrInvalidPayment     = apperr.Validation("invalid_payment_method", "Invalid payment method")
	ErrMissingAddress     = apperr.Validation("missing_address", "Shipping address is incomplete")
	ErrInvalidPhoneFormat = apperr.Validation("invalid_phone_format", "Phone number must have exactly 10 digits")
	ErrInvalidUTR         = apperr.Validation("invalid_utr", "UTR number must contain at least 10 digits")
	ErrInvalidStatus      = apperr.Validation("invalid_status", "Invalid order status")

	ErrProductNotFound = apperr.NotFound("product_not_found", "Product not found")
	ErrOrderNotFound   = apperr.NotFound("order_not_found", "Order not found")

	ErrProductInactive   = apperr.Conflict("product_inactive", "Product is no longer available")
	ErrSizeUnavailable   = apperr.Conflict("size_unavailable", "Selected size is not available")
	ErrInsufficientStock = apperr.Conflict("insufficient_stock", "Insufficient stock")

	ErrOrderNotCancellable = apperr.Conflict("order_not_cancellable", "Order can only be cancelled while pending or confirmed")
	ErrInvalidTransition   = apperr.ConflictStatus("invalid_transition", "Status transition not allowed", http.StatusConflict)
	ErrStatusChanged       = apperr.ConflictStatus("status_changed", "Order status changed, please retry", http.StatusConflict)
	ErrNotDraft            = apperr.ConflictStatus("not_draft", "Only draft orders can be autosaved", http.StatusConflict)

	ErrAccessDenied = apperr.AccessDenied("access_denied", "You are not allowed to access this order")
)
