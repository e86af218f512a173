// Package paymentprovider реализует HTTP-клиент платёжного провайдера
// с hosted checkout: создание checkout-сессии и получение её состояния.
//
// Все вызовы ограничены по времени таймаутом httpClient; запросы на
// создание несут заголовок Idempotence-Key, чтобы повтор сетевого сбоя
// не породил вторую сессию.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client — клиент API платёжного провайдера.
type Client struct {
	shopID     string
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент провайдера с ограниченным таймаутом.
func NewClient(shopID, secretKey, apiURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		shopID:     shopID,
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.shopID + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	if method == http.MethodPost {
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}
	return req, nil
}

func (c *Client) do(req *http.Request) (*CheckoutSession, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession создаёт новую hosted checkout-сессию и возвращает её
// вместе с URL страницы оплаты.
func (c *Client) CreateSession(ctx context.Context, reqParams CreateSessionRequest) (*CheckoutSession, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/checkout/sessions", reqParams)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// RetrieveSession возвращает состояние checkout-сессии по её идентификатору.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/checkout/sessions/"+sessionID, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}
