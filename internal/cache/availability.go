package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LitKanna/TF-PickupService/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// AvailabilityCache advisory-кэш выборок доступности с коротким TTL.
// Кэш не является источником истины: авторитетная проверка всегда
// выполняется заново внутри транзакции создания бронирования.
// Nil-экземпляр безопасен: все операции становятся no-op (промах кэша).
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger Logger
}

// New создает кэш доступности поверх redis
func New(client *redis.Client, ttl time.Duration, logger Logger) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl, logger: logger}
}

// BaysKey ключ кэша выборки свободных боксов
func BaysKey(date time.Time, startTime string, durationMinutes int, vehicleType string) string {
	if vehicleType == "" {
		vehicleType = "any"
	}
	return fmt.Sprintf("avail:bays:%s:%s:%d:%s", date.Format(domain.DateFormat), startTime, durationMinutes, vehicleType)
}

// ZonesKey ключ кэша выборки загрузки зон
func ZonesKey(date time.Time) string {
	return fmt.Sprintf("avail:zones:%s", date.Format(domain.DateFormat))
}

// SlotsKey ключ кэша выборки слотов; bayID == 0 для выборки без бокса
func SlotsKey(date time.Time, bayID int64) string {
	return fmt.Sprintf("avail:slots:%s:%d", date.Format(domain.DateFormat), bayID)
}

// Get читает закэшированное значение в dest. Возвращает false при промахе.
// Ошибки redis трактуются как промах: кэш advisory и не должен ронять запрос.
func (c *AvailabilityCache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil || c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("cache: get %s failed: %v", key, err)
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("cache: unmarshal %s failed: %v", key, err)
		return false
	}

	return true
}

// Set сохраняет значение с настроенным TTL
func (c *AvailabilityCache) Set(ctx context.Context, key string, value interface{}) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache: marshal %s failed: %v", key, err)
		return
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache: set %s failed: %v", key, err)
	}
}

// InvalidateBayDate сбрасывает проекции, затронутые записью блока занятости
// по ключу (bay_id, date): все выборки боксов на дату и зонную сводку даты.
func (c *AvailabilityCache) InvalidateBayDate(ctx context.Context, bayID int64, date time.Time) {
	if c == nil || c.client == nil {
		return
	}

	pattern := fmt.Sprintf("avail:bays:%s:*", date.Format(domain.DateFormat))

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.logger.Warn("cache: scan %s failed: %v", pattern, err)
			break
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.Warn("cache: del failed: %v", err)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	keys := []string{ZonesKey(date), SlotsKey(date, bayID), SlotsKey(date, 0)}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache: del projection keys failed: %v", err)
	}
}
