package order

import (
	"dryfruit_store/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing 计价规则。
type Pricing struct {
	FreeShippingThreshold decimal.Decimal `json:"free_shipping_threshold"`
	ShippingFee           decimal.Decimal `json:"shipping_fee"`
	TaxPercent            decimal.Decimal `json:"tax_percent"`
}

// Compute 小计满额包邮；税 = 小计 * 税率，保留两位。空订单不收运费。
func (p Pricing) Compute(subtotal decimal.Decimal) model.Pricing {
	shipping := p.ShippingFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(p.TaxPercent).Div(hundred).Round(2)
	discount := decimal.Zero
	return model.Pricing{
		Subtotal:        subtotal,
		Discount:        discount,
		ShippingCharges: shipping,
		Tax:             tax,
		Total:           subtotal.Sub(discount).Add(shipping).Add(tax),
	}
}

// Subtotal 按快照单价求和。
func Subtotal(items []model.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}
