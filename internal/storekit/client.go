// Package storekit реализует клиент шлюза платформенного магазина:
// каталог продуктов, покупки, восстановление, история транзакций и
// поток асинхронных обновлений транзакций из RabbitMQ.
package storekit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/phone-cleaner/internal/models"
)

// Client: HTTP-клиент шлюза магазина.
type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент магазина.
func NewClient(apiURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do выполняет запрос и декодирует JSON-ответ в out, если out не nil.
// Сетевые ошибки оборачивают models.ErrNetworkUnavailable, ответы не 2xx: models.ErrStoreFailed.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status %s: %s", models.ErrStoreFailed, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", models.ErrStoreFailed, err)
	}
	return nil
}

// FetchProducts возвращает описания продуктов с указанными идентификаторами.
func (c *Client) FetchProducts(ctx context.Context, ids []string) ([]models.ProductInfo, error) {
	const op = "storekit.FetchProducts"

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/products?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp productsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	products := make([]models.ProductInfo, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, models.ProductInfo{
			ID:           p.ID,
			DisplayName:  p.DisplayName,
			DisplayPrice: p.DisplayPrice,
			Type:         p.Type,
		})
	}
	return products, nil
}

// Purchase запускает покупку продукта.
func (c *Client) Purchase(ctx context.Context, productID string) (PurchaseResponse, error) {
	const op = "storekit.Purchase"

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/purchases", PurchaseRequest{ProductID: productID})
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("%s: %w", op, err)
	}

	var resp PurchaseResponse
	if err := c.do(req, &resp); err != nil {
		return PurchaseResponse{}, fmt.Errorf("%s: %w", op, err)
	}
	switch resp.Status {
	case StatusSuccess, StatusCancelled, StatusPending, StatusFailed:
	default:
		return PurchaseResponse{}, fmt.Errorf("%s: %w: unknown purchase status %q", op, models.ErrStoreFailed, resp.Status)
	}
	return resp, nil
}

// Sync синхронизирует покупки с магазином (восстановление покупок).
func (c *Client) Sync(ctx context.Context) error {
	const op = "storekit.Sync"

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/sync", nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Transactions возвращает подписанные транзакции, действующие для пользователя.
func (c *Client) Transactions(ctx context.Context) ([]string, error) {
	const op = "storekit.Transactions"

	req, err := c.newRequest(ctx, http.MethodGet, "/v1/transactions/current", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp transactionsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.SignedTransactions == nil {
		return []string{}, nil
	}
	return resp.SignedTransactions, nil
}

// Finish подтверждает магазину обработку транзакции.
func (c *Client) Finish(ctx context.Context, transactionID string) error {
	const op = "storekit.Finish"
	if transactionID == "" {
		return fmt.Errorf("%s: %w", op, errors.New("empty transaction id"))
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/transactions/"+url.PathEscape(transactionID)+"/finish", nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
