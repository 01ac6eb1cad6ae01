package booking

import (
	"time"

	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor
type TxExecutor = dbmetrics.TxExecutor

// ScheduleChange новые бронировочные параметры при переносе бронирования.
// Применяется атомарно вместе с заменой блока занятости.
type ScheduleChange struct {
	BayID           int64
	PickupDate      time.Time
	StartTime       types.TimeString
	EndTime         types.TimeString
	DurationMinutes int
	SlotID          *int64
	Fee             float64
}

// ReminderDueFilter выборка бронирований, которым пора отправить напоминание.
// Сравнение идёт по полному моменту пикапа, поэтому напоминания около
// полуночи не теряются на границе суток.
type ReminderDueFilter struct {
	DueBy time.Time // pickup_date + start_time <= DueBy
	Limit uint64
}

// dateOnly обнуляет время у даты перед записью в колонку DATE
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
