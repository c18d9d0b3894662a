package checkout

import (
	"net/url"
	"strings"

	"dryfruit_store/internal/model"

	"github.com/shopspring/decimal"
)

// App 可选的 UPI App。Other / BHIM 走通用 upi:// 协议，由系统选择。
type App struct {
	Key    string              `json:"key"`
	Name   string              `json:"name"`
	Scheme string              `json:"scheme"`
	Method model.PaymentMethod `json:"method"`
}

var apps = []App{
	{Key: "phonepe", Name: "PhonePe", Scheme: "phonepe://pay", Method: model.PaymentUPIPhonePe},
	{Key: "gpay", Name: "Google Pay", Scheme: "tez://upi/pay", Method: model.PaymentUPIGPay},
	{Key: "paytm", Name: "Paytm", Scheme: "paytmmp://pay", Method: model.PaymentUPIPaytm},
	{Key: "bhim", Name: "BHIM", Scheme: "upi://pay", Method: model.PaymentUPIBHIM},
	{Key: "other", Name: "Other UPI app", Scheme: "upi://pay", Method: model.PaymentUPIOther},
}

func Apps() []App { return append([]App(nil), apps...) }

func LookupApp(key string) (App, bool) {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, a := range apps {
		if a.Key == key {
			return a, true
		}
	}
	return App{}, false
}

// DeepLink 拼装 UPI 深链：pa 收款 VPA，pn 收款名，am 金额（两位小数），cu 币种，
// tn 备注，tr 关联号。空格编码为 %20，部分 App 不认 '+'。
func DeepLink(app App, payee Payee, amount decimal.Decimal, memo, ref string) string {
	q := url.Values{}
	q.Set("pa", payee.VPA)
	q.Set("pn", payee.Name)
	q.Set("am", amount.StringFixed(2))
	q.Set("cu", "INR")
	if memo != "" {
		q.Set("tn", memo)
	}
	if ref != "" {
		q.Set("tr", ref)
	}
	return app.Scheme + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}
