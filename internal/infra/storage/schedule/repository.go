package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/internal/infra/storage/timeslot"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/psqlbuilder"
)

// Repository репозиторий регулярных расписаний пикапа
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

var scheduleColumns = []string{
	"id",
	"user_id",
	"bay_id",
	"slot_id",
	"frequency",
	"days_of_week",
	"day_of_month",
	"preferred_time",
	"duration_minutes",
	"start_date",
	"end_date",
	"auto_confirm",
	"next_booking_date",
	"needs_attention",
	"last_error",
	"active",
	"created_at",
	"updated_at",
}

// Create создает новое регулярное расписание
func (r *Repository) Create(ctx context.Context, s *domain.RecurringPickupSchedule) (*domain.RecurringPickupSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("recurring_pickup_schedules").
		Columns(
			"user_id",
			"bay_id",
			"slot_id",
			"frequency",
			"days_of_week",
			"day_of_month",
			"preferred_time",
			"duration_minutes",
			"start_date",
			"end_date",
			"auto_confirm",
			"next_booking_date",
			"active",
		).
		Values(
			s.UserID,
			s.BayID,
			s.SlotID,
			s.Frequency,
			timeslot.FormatDaysOfWeek(s.DaysOfWeek),
			s.DayOfMonth,
			s.PreferredTime,
			s.DurationMinutes,
			dateOnly(s.StartDate),
			nullableDate(s.EndDate),
			s.AutoConfirm,
			nullableDate(s.NextBookingDate),
			s.Active,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return s, nil
}

// GetByID получает расписание по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.RecurringPickupSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(scheduleColumns...).
		From("recurring_pickup_schedules").
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
		return nil, ErrScheduleNotFound
	}

	return scanSchedule(rows)
}

// ListDue получает активные расписания, чья next_booking_date наступила,
// исключая помеченные needs_attention (они ждут ручного вмешательства)
func (r *Repository) ListDue(ctx context.Context, asOf time.Time) ([]*domain.RecurringPickupSchedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(scheduleColumns...).
		From("recurring_pickup_schedules").
		Where(squirrel.Eq{"active": true}).
		Where(squirrel.Eq{"needs_attention": false}).
		Where(squirrel.LtOrEq{"next_booking_date": dateOnly(asOf)}).
		OrderBy("next_booking_date ASC, id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedules := make([]*domain.RecurringPickupSchedule, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListDue - rows error: %v", ErrScanRow, err)
	}

	return schedules, nil
}

// AdvanceNextDate сдвигает next_booking_date после успешной материализации
// и снимает флаг needs_attention
func (r *Repository) AdvanceNextDate(ctx context.Context, id int64, next time.Time) error {
	return r.update(ctx, "AdvanceNextDate", psqlbuilder.Update("recurring_pickup_schedules").
		Set("next_booking_date", dateOnly(next)).
		Set("needs_attention", false).
		Set("last_error", nil).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// Flag помечает расписание требующим внимания после сбоя материализации.
// Дата не сдвигается: пропуск даты без следа недопустим.
func (r *Repository) Flag(ctx context.Context, id int64, lastError string) error {
	return r.update(ctx, "Flag", psqlbuilder.Update("recurring_pickup_schedules").
		Set("needs_attention", true).
		Set("last_error", lastError).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// Deactivate отключает расписание (например, по истечении end_date)
func (r *Repository) Deactivate(ctx context.Context, id int64) error {
	return r.update(ctx, "Deactivate", psqlbuilder.Update("recurring_pickup_schedules").
		Set("active", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

func (r *Repository) update(ctx context.Context, op string, builder squirrel.UpdateBuilder) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrScheduleNotFound
	}

	return nil
}

func scanSchedule(rows *sql.Rows) (*domain.RecurringPickupSchedule, error) {
	var s domain.RecurringPickupSchedule
	var daysCSV string
	var createdAt, updatedAt sql.NullTime

	err := rows.Scan(
		&s.ID,
		&s.UserID,
		&s.BayID,
		&s.SlotID,
		&s.Frequency,
		&daysCSV,
		&s.DayOfMonth,
		&s.PreferredTime,
		&s.DurationMinutes,
		&s.StartDate,
		&s.EndDate,
		&s.AutoConfirm,
		&s.NextBookingDate,
		&s.NeedsAttention,
		&s.LastError,
		&s.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scanSchedule - scan row: %v", ErrScanRow, err)
	}

	s.DaysOfWeek, err = timeslot.ParseDaysOfWeek(daysCSV)
	if err != nil {
		return nil, fmt.Errorf("%w: scanSchedule - parse days_of_week: %v", ErrScanRow, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time
	return &s, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateOnly(*t)
}
