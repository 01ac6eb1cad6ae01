package orderservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Статусы заказа, которые проставляет движок пикапа
const (
	StatusBuyerArrived = "buyer_arrived"
	StatusFulfilled    = "fulfilled"
	StatusRefundDue    = "refund_due"
)

// Client клиент для работы с Order-контекстом.
// Движок бронирования дергает его после коммита переходов состояния;
// ошибки клиента никогда не откатывают переход.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента Order-сервиса
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus обновляет статус заказа (black box для движка пикапа)
func (c *Client) UpdateOrderStatus(ctx context.Context, orderRef string, status string) error {
	url := fmt.Sprintf("%s/internal/orders/%s/status", c.baseURL, orderRef)

	body, err := json.Marshal(updateStatusRequest{Status: status})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.log.Info("orderservice: order %s status -> %s", orderRef, status)
		return nil
	case http.StatusNotFound:
		return ErrOrderNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}

// TriggerRefund запускает внешний refund workflow для оплаченного бронирования
func (c *Client) TriggerRefund(ctx context.Context, orderRef string, bookingReference string) error {
	url := fmt.Sprintf("%s/internal/orders/%s/refunds", c.baseURL, orderRef)

	payload := map[string]string{"booking_reference": bookingReference}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		c.log.Info("orderservice: refund triggered for order %s, booking %s", orderRef, bookingReference)
		return nil
	case http.StatusNotFound:
		return ErrOrderNotFound
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}
