package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// AMQPPublisher ретранслирует события жизненного цикла бронирований в AMQP.
// Подписывается на внутреннюю шину и публикует каждое событие с routing key,
// равным типу события. Ошибки публикации логируются и не влияют на
// зафиксированное состояние бронирования.
type AMQPPublisher struct {
	url      string
	exchange string
	logger   Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher создает паблишер; соединение устанавливается в Connect
func NewAMQPPublisher(url, exchange string, logger Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, exchange: exchange, logger: logger}
}

// Connect устанавливает соединение и объявляет topic exchange
func (p *AMQPPublisher) Connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("events: amqp dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("events: amqp channel failed: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("events: exchange declare failed: %w", err)
	}

	p.conn = conn
	p.ch = ch
	p.logger.Info("events: connected to AMQP, exchange=%s", p.exchange)
	return nil
}

// Close закрывает канал и соединение
func (p *AMQPPublisher) Close() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}

// Handle публикует событие; сигнатура совместима с events.Handler
func (p *AMQPPublisher) Handle(event Event) {
	if p.ch == nil {
		p.logger.Warn("events: publisher not connected, dropping event %s type=%s", event.ID, event.Type)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("events: failed to marshal event %s: %v", event.ID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.CreatedAt,
		Body:         body,
	})
	if err != nil {
		p.logger.Error("events: failed to publish event %s type=%s: %v", event.ID, event.Type, err)
		return
	}

	p.logger.Info("events: published %s type=%s booking=%s", event.ID, event.Type, event.Booking.Reference)
}
