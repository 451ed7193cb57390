package checkoutpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const httpClientTimeout = 10 * time.Second

type httpPayer struct {
	baseURL   string
	keyID     string
	keySecret string
}

func NewPayer(baseURL string) *httpPayer {
	return &httpPayer{
		baseURL: baseURL,
	}
}

func (p *httpPayer) UseCredentials(keyID string, keySecret string) {
	p.keyID = keyID
	p.keySecret = keySecret
}

func (p *httpPayer) CreateOrder(ctx context.Context, req CreateOrderRequest) (CreateOrderResponse, error) {
	url := p.baseURL + "/v1/orders"

	body, err := json.Marshal(req)
	if err != nil {
		return CreateOrderResponse{}, fmt.Errorf("error marshalling order request: %s", err)
	}

	httpRespCode, respBody, err := p.send(ctx, http.MethodPost, url, body)
	if err != nil {
		return CreateOrderResponse{}, fmt.Errorf("error creating order: %s", err)
	}
	if httpRespCode != 200 {
		return CreateOrderResponse{}, fmt.Errorf("error creating order: %d", httpRespCode)
	}

	resp := CreateOrderResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return CreateOrderResponse{}, fmt.Errorf("error parsing order response: %s", err)
	}

	return resp, nil
}

func (p *httpPayer) send(ctx context.Context, method string, url string, body []byte) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error creating http request for %s %s: %s", method, url, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.SetBasicAuth(p.keyID, p.keySecret)

	httpClient := &http.Client{
		Timeout: httpClientTimeout,
	}
	httpResp, err := httpClient.Do(httpReq)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error calling %s %s: %s", method, url, err)
	}
	defer httpResp.Body.Close()

	log.Printf("HTTP call to payment gateway: %s %s -> %d", method, url, httpResp.StatusCode)

	respPayload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error reading response %s %s: %s", method, url, err)
	}

	return httpResp.StatusCode, respPayload, nil
}
