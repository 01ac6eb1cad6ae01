package timeslot

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/psqlbuilder"
)

// Repository репозиторий каталога временных слотов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

var slotColumns = []string{
	"id",
	"name",
	"type",
	"start_time",
	"end_time",
	"duration_minutes",
	"max_bookings",
	"price_multiplier",
	"days_of_week",
	"allow_exact_time",
	"min_advance_hours",
	"max_advance_days",
	"priority",
	"active",
	"created_at",
	"updated_at",
}

// ListActiveForWeekday получает активные слоты, действующие в указанный день недели,
// в порядке приоритета (premium раньше standard)
func (r *Repository) ListActiveForWeekday(ctx context.Context, day time.Weekday) ([]*domain.TimeSlot, error) {
	slots, err := r.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	// Фильтрация по дню недели выполняется в коде: days_of_week хранится
	// как CSV-строка и не индексируется.
	filtered := make([]*domain.TimeSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.AppliesOn(day) {
			filtered = append(filtered, slot)
		}
	}
	return filtered, nil
}

// ListActive получает все активные слоты в порядке приоритета
func (r *Repository) ListActive(ctx context.Context) ([]*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("time_slots").
		Where(squirrel.Eq{"active": true}).
		OrderBy("priority ASC, start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.TimeSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.TimeSlot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(slotColumns...).
		From("time_slots").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: GetByID - rows error: %v", ErrScanRow, err)
		}
		return nil, ErrSlotNotFound
	}

	return scanSlot(rows)
}

func scanSlot(rows *sql.Rows) (*domain.TimeSlot, error) {
	var slot domain.TimeSlot
	var daysCSV string
	var createdAt, updatedAt sql.NullTime

	err := rows.Scan(
		&slot.ID,
		&slot.Name,
		&slot.Type,
		&slot.StartTime,
		&slot.EndTime,
		&slot.DurationMinutes,
		&slot.MaxBookings,
		&slot.PriceMultiplier,
		&daysCSV,
		&slot.AllowExactTime,
		&slot.MinAdvanceHours,
		&slot.MaxAdvanceDays,
		&slot.Priority,
		&slot.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scanSlot - scan row: %v", ErrScanRow, err)
	}

	slot.DaysOfWeek, err = ParseDaysOfWeek(daysCSV)
	if err != nil {
		return nil, fmt.Errorf("%w: scanSlot - parse days_of_week: %v", ErrScanRow, err)
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time
	return &slot, nil
}

// ParseDaysOfWeek разбирает CSV-представление дней недели ("1,2,3,4,5")
func ParseDaysOfWeek(csv string) ([]time.Weekday, error) {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil, nil
	}

	parts := strings.Split(csv, ",")
	days := make([]time.Weekday, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 6 {
			return nil, fmt.Errorf("invalid weekday %q", p)
		}
		days = append(days, time.Weekday(n))
	}
	return days, nil
}

// FormatDaysOfWeek сериализует дни недели в CSV для хранения
func FormatDaysOfWeek(days []time.Weekday) string {
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}
