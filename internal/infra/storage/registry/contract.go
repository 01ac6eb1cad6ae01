package registry

import (
	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// BayFilter фильтр для выборки боксов
type BayFilter struct {
	ZoneID     *int64
	Type       *domain.BayType
	Types      []domain.BayType
	Status     *domain.BayStatus
	ActiveOnly bool
}
