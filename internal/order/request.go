package order

import (
	"strings"

	"dryfruit_store/internal/model"
)

// MinUTRDigits UTR 去掉非数字后至少 10 位。
const MinUTRDigits = 10

// MaxLineQuantity 单个 (商品, 规格) 合并后的数量上限。
const MaxLineQuantity = 1000

type ItemInput struct {
	ProductID uint   `json:"product_id" binding:"required,min=1"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=1000"`
}

type AddressInput struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone" binding:"required"`
	Email        string `json:"email" binding:"omitempty,email"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode" binding:"omitempty,pincode"`
}

// toModel 能识别的手机号统一存成 10 位本地号码，查单按这个写法命中。
func (a AddressInput) toModel() model.Address {
	phone := strings.TrimSpace(a.Phone)
	if n, ok := NationalNumber(phone); ok {
		phone = n
	}
	return model.Address{
		FullName:     strings.TrimSpace(a.FullName),
		Phone:        phone,
		Email:        strings.TrimSpace(a.Email),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		Pincode:      strings.TrimSpace(a.Pincode),
	}
}

type PaymentDetails struct {
	UTRNumber     string `json:"utr_number"`
	TransactionID string `json:"transaction_id"`
	UPIApp        string `json:"upi_app"`
}

// CreateRequest POST /api/orders 与 /api/orders/draft 共用的请求体。
type CreateRequest struct {
	Items           []ItemInput         `json:"items" binding:"required,min=1,dive"`
	ShippingAddress AddressInput        `json:"shipping_address" binding:"required"`
	PaymentMethod   model.PaymentMethod `json:"payment_method"`
	PaymentDetails  PaymentDetails      `json:"payment_details"`
	OrderNote       string              `json:"order_note" binding:"max=512"`
	// DraftID 非零时覆盖已有草稿（自动保存）
	DraftID uint `json:"draft_id,omitempty"`
}

// validate final=true 为正式下单，地址全部必填；草稿只要求商品和手机号。
func (r CreateRequest) validate(final bool) error {
	if len(r.Items) == 0 {
		return ErrNoItems
	}
	for _, it := range r.Items {
		if it.Quantity < 1 || it.Quantity > MaxLineQuantity {
			return ErrInvalidQuantity
		}
		if it.ProductID == 0 || strings.TrimSpace(it.Size) == "" {
			return ErrNoItems
		}
	}
	// 重复行合并后再卡一次上限
	for _, it := range mergeItems(r.Items) {
		if it.Quantity > MaxLineQuantity {
			return ErrInvalidQuantity
		}
	}

	addr := r.ShippingAddress
	if strings.TrimSpace(addr.Phone) == "" {
		return ErrMissingAddress.With("Shipping phone is required")
	}
	if !final {
		return nil
	}
	if _, ok := NationalNumber(addr.Phone); !ok {
		return ErrInvalidPhoneFormat
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"full_name", addr.FullName},
		{"address_line1", addr.AddressLine1},
		{"city", addr.City},
		{"state", addr.State},
		{"pincode", addr.Pincode},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return ErrMissingAddress.Withf("Shipping address is incomplete: missing %s", strings.Join(missing, ", "))
	}

	if !r.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	if r.PaymentMethod.IsUPI() && r.PaymentDetails.UTRNumber != "" {
		return ValidateUTR(r.PaymentDetails.UTRNumber)
	}
	return nil
}

// ValidateUTR 与客户端规则一致：去掉非数字后至少 10 位。
func ValidateUTR(utr string) error {
	if len(DigitsOnly(utr)) < MinUTRDigits {
		return ErrInvalidUTR
	}
	return nil
}

// mergeItems 合并重复的 (商品, 规格) 行，保持首次出现的顺序。
func mergeItems(items []ItemInput) []ItemInput {
	type key struct {
		id   uint
		size string
	}
	idx := make(map[key]int, len(items))
	out := make([]ItemInput, 0, len(items))
	for _, it := range items {
		it.Size = strings.TrimSpace(it.Size)
		k := key{it.ProductID, it.Size}
		if i, ok := idx[k]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		idx[k] = len(out)
		out = append(out, it)
	}
	return out
}

// StatusUpdate PUT /api/orders/:id/status 请求体。
type StatusUpdate struct {
	Status   string `json:"status" binding:"required"`
	Note     string `json:"note" binding:"max=255"`
	Tracking string `json:"tracking" binding:"max=64"`
}

// ListFilter 管理后台订单列表。
type ListFilter struct {
	Status   string
	Page     int
	PageSize int
}

func (f ListFilter) normalize() (ListFilter, error) {
	if f.Status != "" {
		if _, ok := model.ParseOrderStatus(f.Status); !ok {
			return f, ErrInvalidStatus
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
	return f, nil
}
