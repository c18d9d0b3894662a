package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Result 记录单次请求的 HTTP 结果，便于聚合统计。
type Result struct {
	Status int
	Body   string
	Err    error
}

type itemReq struct {
	ProductID int    `json:"product_id"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type addressReq struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	City         string `json:"city"`
	State        string `json:"state"`
	Pincode      string `json:"pincode"`
}

type orderReq struct {
	Items           []itemReq  `json:"items"`
	ShippingAddress addressReq `json:"shipping_address"`
	PaymentMethod   string     `json:"payment_method"`
}

func main() {
	baseURL := flag.String("base", "http://localhost:8080", "server base url")
	adminToken := flag.String("admin-token", "", "admin bearer token (from `dryfruit seed`), used to reset stock")
	productID := flag.Int("product", 1, "product id")
	sizeID := flag.Int("size-id", 1, "size id (for stock reset)")
	size := flag.String("size", "200g", "size label")
	stock := flag.Int("stock", 10, "reset stock to this value before the test (needs admin token)")

	// 超卖测试参数：200 个并发订单抢 stock 件
	// 下单接口按 IP 限流，压测前把服务端 ORDER_RATE_LIMIT 调大
	nOrders := flag.Int("orders", 200, "concurrent orders")
	concurrency := flag.Int("c", 50, "max concurrency")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	if *adminToken != "" {
		url := fmt.Sprintf("%s/api/admin/products/%d/sizes/%d/stock", *baseURL, *productID, *sizeID)
		if err := doJSON(client, http.MethodPut, url, map[string]int{"stock": *stock}, *adminToken); err != nil {
			panic(fmt.Sprintf("reset stock failed: %v", err))
		}
		fmt.Printf("stock reset to %d\n", *stock)
	}

	fmt.Printf("start oversell test: product=%d size=%s orders=%d concurrency=%d\n", *productID, *size, *nOrders, *concurrency)
	results := runOrders(client, *baseURL, *productID, *size, *nOrders, *concurrency)
	created := printSummary("oversell", results)

	left, err := getStock(client, *baseURL, *productID, *size)
	if err != nil {
		fmt.Println("stock check err:", err)
		return
	}
	fmt.Println("final stock:", left)
	if *adminToken != "" {
		if created+left != *stock {
			fmt.Printf("MISMATCH: created=%d + left=%d != initial=%d\n", created, left, *stock)
		} else {
			fmt.Println("ok: no oversell")
		}
	}
}

func runOrders(client *http.Client, baseURL string, productID int, size string, n, concurrency int) []Result {
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	results := make([]Result, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			req := orderReq{
				Items: []itemReq{{ProductID: productID, Size: size, Quantity: 1}},
				ShippingAddress: addressReq{
					FullName:     fmt.Sprintf("Load Test %d", idx),
					Phone:        fmt.Sprintf("9%09d", idx),
					AddressLine1: "1 Test Street",
					City:         "Pune",
					State:        "MH",
					Pincode:      "411001",
				},
				PaymentMethod: "cod",
			}
			results[idx] = orderOnce(client, baseURL, req)
		}(i)
	}

	wg.Wait()
	return results
}

func orderOnce(client *http.Client, baseURL string, req any) Result {
	b, _ := json.Marshal(req)
	httpReq, _ := http.NewRequest(http.MethodPost, baseURL+"/api/orders", bytes.NewReader(b))
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return Result{Status: resp.StatusCode, Body: string(body)}
}

// printSummary 聚合输出不同状态码分布，返回 201 的数量。
func printSummary(name string, results []Result) int {
	count := map[int]int{}
	errCount := 0
	for _, r := range results {
		if r.Err != nil {
			errCount++
			continue
		}
		count[r.Status]++
	}
	fmt.Printf("[%s] http status summary:\n", name)
	for _, code := range []int{201, 400, 404, 409, 429, 500} {
		if count[code] > 0 {
			fmt.Printf("  %d -> %d\n", code, count[code])
		}
	}
	if errCount > 0 {
		fmt.Printf("  errors -> %d\n", errCount)
	}
	return count[http.StatusCreated]
}

func doJSON(client *http.Client, method, url string, body any, token string) error {
	b, _ := json.Marshal(body)
	req, _ := http.NewRequest(method, url, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}

// getStock 从商品详情里读取某规格的库存，用于压测后校验是否出现超卖。
func getStock(client *http.Client, baseURL string, productID int, size string) (int, error) {
	resp, err := client.Get(fmt.Sprintf("%s/api/products/%d", baseURL, productID))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
	}

	var out struct {
		Code int `json:"code"`
		Data struct {
			Sizes []struct {
				Label string `json:"label"`
				Stock int    `json:"stock"`
			} `json:"sizes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return 0, err
	}
	for _, s := range out.Data.Sizes {
		if s.Label == size {
			return s.Stock, nil
		}
	}
	return 0, fmt.Errorf("size %s not found", size)
}
