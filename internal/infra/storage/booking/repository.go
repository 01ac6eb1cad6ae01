package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/psqlbuilder"
)

// Repository репозиторий бронирований пикапа
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var bookingColumns = []string{
	"id",
	"reference",
	"confirmation_code",
	"user_id",
	"order_ref",
	"bay_id",
	"slot_id",
	"pickup_date",
	"start_time",
	"end_time",
	"duration_minutes",
	"type",
	"status",
	"vehicle_type",
	"vehicle_plate",
	"driver_name",
	"qr_payload",
	"fee",
	"paid",
	"cancellation_reason",
	"cancelled_by",
	"checked_in_at",
	"completed_at",
	"cancelled_at",
	"reminder_sent_at",
	"created_at",
	"updated_at",
}

// Create создает новое бронирование.
// Уникальность reference и confirmation_code обеспечивается уникальными
// индексами: при нарушении возвращаются типизированные ошибки, по которым
// вызывающий код перегенерирует код и повторяет вставку.
// Внутри транзакции (через context) вставка происходит атомарно с блоком занятости.
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"reference",
			"confirmation_code",
			"user_id",
			"order_ref",
			"bay_id",
			"slot_id",
			"pickup_date",
			"start_time",
			"end_time",
			"duration_minutes",
			"type",
			"status",
			"vehicle_type",
			"vehicle_plate",
			"driver_name",
			"qr_payload",
			"fee",
			"paid",
		).
		Values(
			b.Reference,
			b.ConfirmationCode,
			b.UserID,
			b.OrderRef,
			b.BayID,
			b.SlotID,
			dateOnly(b.PickupDate),
			b.StartTime,
			b.EndTime,
			b.DurationMinutes,
			b.Type,
			b.Status,
			b.VehicleType,
			b.VehiclePlate,
			b.DriverName,
			b.QRPayload,
			b.Fee,
			b.Paid,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt, &updatedAt)
	if err != nil {
		if dupErr := classifyUniqueViolation(err); dupErr != nil {
			return nil, dupErr
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time
	return b, nil
}

// GetByID получает бронирование по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByReference получает бронирование по уникальному коду
func (r *Repository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return r.getOne(ctx, squirrel.Eq{"reference": reference})
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("%w: getOne - rows error: %v", ErrScanRow, err)
		}
		return nil, ErrBookingNotFound
	}

	return scanBooking(rows)
}

// ListForBayAndDate получает бронирования бокса на дату с указанными статусами.
// Внутри транзакции выборка блокируется FOR UPDATE, чтобы закрыть гонку
// между проверкой пересечений и вставкой нового бронирования.
func (r *Repository) ListForBayAndDate(ctx context.Context, bayID int64, date time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"bay_id": bayID}).
		Where(squirrel.Eq{"pickup_date": dateOnly(date)}).
		OrderBy("start_time ASC")

	if len(statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(statuses)})
	}

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return r.list(ctx, executor, selectBuilder, "ListForBayAndDate")
}

// ListForDate получает бронирования на дату с указанными статусами
func (r *Repository) ListForDate(ctx context.Context, date time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"pickup_date": dateOnly(date)}).
		OrderBy("bay_id ASC, start_time ASC")

	if len(statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(statuses)})
	}

	return r.list(ctx, executor, selectBuilder, "ListForDate")
}

// ListBetween получает бронирования за период (для аналитики пиковых часов)
func (r *Repository) ListBetween(ctx context.Context, startDate, endDate time.Time, statuses []domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.GtOrEq{"pickup_date": dateOnly(startDate)}).
		Where(squirrel.LtOrEq{"pickup_date": dateOnly(endDate)}).
		OrderBy("pickup_date ASC, start_time ASC")

	if len(statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(statuses)})
	}

	return r.list(ctx, executor, selectBuilder, "ListBetween")
}

// ListByUser получает бронирования пользователя, сначала новые
func (r *Repository) ListByUser(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("pickup_date DESC, start_time DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	return r.list(ctx, executor, selectBuilder, "ListByUser")
}

// CountBySlotAndDate подсчитывает бронирования слота на дату с указанными статусами
func (r *Repository) CountBySlotAndDate(ctx context.Context, slotID int64, date time.Time, statuses []domain.BookingStatus) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From("bookings").
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"pickup_date": dateOnly(date)})

	if len(statuses) > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": statusStrings(statuses)})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountBySlotAndDate - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountBySlotAndDate - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// UpdateStatus обновляет статус бронирования
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	return r.update(ctx, "UpdateStatus", psqlbuilder.Update("bookings").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// UpdateSchedule переносит бронирование на новый бокс/дату/время.
// Вызывается только внутри транзакции вместе с заменой блока занятости.
func (r *Repository) UpdateSchedule(ctx context.Context, id int64, change ScheduleChange) error {
	return r.update(ctx, "UpdateSchedule", psqlbuilder.Update("bookings").
		Set("bay_id", change.BayID).
		Set("pickup_date", dateOnly(change.PickupDate)).
		Set("start_time", change.StartTime).
		Set("end_time", change.EndTime).
		Set("duration_minutes", change.DurationMinutes).
		Set("slot_id", change.SlotID).
		Set("fee", change.Fee).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// SetCheckedIn переводит бронирование в checked_in
func (r *Repository) SetCheckedIn(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, "SetCheckedIn", psqlbuilder.Update("bookings").
		Set("status", domain.StatusCheckedIn).
		Set("checked_in_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// SetCompleted переводит бронирование в completed
func (r *Repository) SetCompleted(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, "SetCompleted", psqlbuilder.Update("bookings").
		Set("status", domain.StatusCompleted).
		Set("completed_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// SetNoShow переводит бронирование в no_show (окно check-in истекло)
func (r *Repository) SetNoShow(ctx context.Context, id int64) error {
	return r.update(ctx, "SetNoShow", psqlbuilder.Update("bookings").
		Set("status", domain.StatusNoShow).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// Cancel отменяет бронирование с фиксацией причины и инициатора
func (r *Repository) Cancel(ctx context.Context, id int64, reason, actor string, at time.Time) error {
	return r.update(ctx, "Cancel", psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_by", actor).
		Set("cancelled_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}))
}

// MarkReminderSent идемпотентно помечает напоминание отправленным.
// Возвращает false, если напоминание уже было отправлено ранее: гард
// reminder_sent_at IS NULL защищает от повторной доставки.
func (r *Repository) MarkReminderSent(ctx context.Context, id int64, at time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("reminder_sent_at", at).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("reminder_sent_at IS NULL").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: MarkReminderSent - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// ListRemindersDue получает подтвержденные бронирования, которым пора
// отправить напоминание (время пикапа в пределах lead-окна, напоминание
// еще не отправлялось)
func (r *Repository) ListRemindersDue(ctx context.Context, filter ReminderDueFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.Expr("pickup_date + start_time::time <= ?", filter.DueBy)).
		Where("reminder_sent_at IS NULL").
		OrderBy("pickup_date ASC, start_time ASC")

	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	return r.list(ctx, executor, selectBuilder, "ListRemindersDue")
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
		return ErrBookingNotFound
	}

	return nil
}

func (r *Repository) list(ctx context.Context, executor DBExecutor, builder squirrel.SelectBuilder, op string) ([]*domain.Booking, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return bookings, nil
}

func scanBooking(rows *sql.Rows) (*domain.Booking, error) {
	var b domain.Booking
	var createdAt, updatedAt sql.NullTime

	err := rows.Scan(
		&b.ID,
		&b.Reference,
		&b.ConfirmationCode,
		&b.UserID,
		&b.OrderRef,
		&b.BayID,
		&b.SlotID,
		&b.PickupDate,
		&b.StartTime,
		&b.EndTime,
		&b.DurationMinutes,
		&b.Type,
		&b.Status,
		&b.VehicleType,
		&b.VehiclePlate,
		&b.DriverName,
		&b.QRPayload,
		&b.Fee,
		&b.Paid,
		&b.CancellationReason,
		&b.CancelledBy,
		&b.CheckedInAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.ReminderSentAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scanBooking - scan row: %v", ErrScanRow, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time
	return &b, nil
}

func statusStrings(statuses []domain.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// classifyUniqueViolation распознает нарушение уникальных индексов кодов бронирования
func classifyUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != "23505" {
		return nil
	}

	switch pqErr.Constraint {
	case "bookings_reference_key":
		return ErrDuplicateReference
	case "bookings_confirmation_code_key":
		return ErrDuplicateCode
	default:
		return nil
	}
}
