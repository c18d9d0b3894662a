package checkout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"dryfruit_store/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient(t *testing.T) {
	var got order.CreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/orders":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			if got.PaymentDetails.UTRNumber == "000000000000" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":400,"msg":"Insufficient stock for Almonds (200g)","error":"insufficient_stock"}`))
				return
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"code":0,"data":{"id":7,"order_number":"DF2610141200000007","status":"pending","pricing":{"total":"650"}}}`))
		case "/api/payment-settings":
			_, _ = w.Write([]byte(`{"code":0,"data":{"upi_id":"nuttyfarms@ybl","payee_name":"Nutty Farms","cod_enabled":true,
				"pricing":{"free_shipping_threshold":"500","shipping_fee":"50","tax_percent":"0"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`404 page not found`))
		}
	}))
	defer srv.Close()

	c := NewAPIClient(srv.URL+"/", "tkn")
	ctx := context.Background()

	s, err := c.PaymentSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "nuttyfarms@ybl", s.UPIID)
	assert.True(t, s.CODEnabled)
	assert.Equal(t, "50", s.Pricing.ShippingFee.String())

	req := cartRequest()
	req.PaymentDetails.UTRNumber = "412345678901"
	o, err := c.CreateOrder(ctx, req)
	require.NoError(t, err)
	assert.EqualValues(t, 7, o.ID)
	assert.Equal(t, "650", o.Pricing.Total.String())
	assert.Equal(t, "412345678901", got.PaymentDetails.UTRNumber)

	req.PaymentDetails.UTRNumber = "000000000000"
	_, err = c.CreateOrder(ctx, req)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "insufficient_stock", apiErr.Code)
	assert.Equal(t, FailureInsufficientStock, Classify(err).Kind)

	_, err = c.Product(ctx, 1)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "404 page not found", apiErr.Msg)
}
