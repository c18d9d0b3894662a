package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dryfruit_store/internal/model"
	"dryfruit_store/internal/order"
)

// APIError 服务端返回的业务错误。
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("api status=%d", e.Status)
	}
	return e.Msg
}

// Settings GET /api/payment-settings 的返回。
type Settings struct {
	UPIID      string        `json:"upi_id"`
	PayeeName  string        `json:"payee_name"`
	CODEnabled bool          `json:"cod_enabled"`
	Pricing    order.Pricing `json:"pricing"`
}

// APIClient 调用店铺 HTTP 接口，实现 OrderCreator。
type APIClient struct {
	base  string
	token string
	http  *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) CreateOrder(ctx context.Context, req order.CreateRequest) (*model.Order, error) {
	var o model.Order
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *APIClient) PaymentSettings(ctx context.Context) (Settings, error) {
	var s Settings
	err := c.do(ctx, http.MethodGet, "/api/payment-settings", nil, &s)
	return s, err
}

func (c *APIClient) Product(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *APIClient) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var env struct {
		Code  int             `json:"code"`
		Msg   string          `json:"msg"`
		Error string          `json:"error"`
		Data  json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Msg: strings.TrimSpace(string(raw))}
	}
	if resp.StatusCode >= 300 || env.Code != 0 {
		return &APIError{Status: resp.StatusCode, Code: env.Error, Msg: env.Msg}
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}
