package notifyservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Каналы доставки уведомлений
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// Message сообщение пользователю в одном из каналов
type Message struct {
	UserID  int64  `json:"user_id"`
	Channel string `json:"channel"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// Client клиент сервиса уведомлений.
// Все отправки проходят через общий лимитер, чтобы пачка напоминаний
// не выжигала квоту внешнего провайдера.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        Logger
}

// NewClient создает новый экземпляр клиента сервиса уведомлений
func NewClient(baseURL string, timeout time.Duration, ratePerSecond float64, burst int, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		log:     log,
	}
}

// Send отправляет сообщение, ожидая слот в лимитере
func (c *Client) Send(ctx context.Context, msg Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	url := fmt.Sprintf("%s/internal/notifications", c.baseURL)
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
		return nil
	default:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(respBody))
	}
}

// SendEmail отправляет письмо
func (c *Client) SendEmail(ctx context.Context, userID int64, subject, body string) error {
	return c.Send(ctx, Message{UserID: userID, Channel: ChannelEmail, Subject: subject, Body: body})
}

// SendSMS отправляет SMS
func (c *Client) SendSMS(ctx context.Context, userID int64, body string) error {
	return c.Send(ctx, Message{UserID: userID, Channel: ChannelSMS, Body: body})
}

// SendPush отправляет push-уведомление
func (c *Client) SendPush(ctx context.Context, userID int64, subject, body string) error {
	return c.Send(ctx, Message{UserID: userID, Channel: ChannelPush, Subject: subject, Body: body})
}
