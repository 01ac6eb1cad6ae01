package availability

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/psqlbuilder"
	"github.com/LitKanna/TF-PickupService/pkg/types"
)

// Repository репозиторий блоков занятости боксов (bay_availability).
// Таблица является источником истины для проверки пересечений интервалов.
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория блоков занятости
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

var blockColumns = []string{
	"id",
	"bay_id",
	"date",
	"start_time",
	"end_time",
	"status",
	"booking_id",
	"reason",
	"created_at",
}

// ListOverlapping получает блоки бокса на дату, пересекающиеся с полуоткрытым
// интервалом [start, end). Граничное касание (end == start соседнего блока)
// пересечением не считается: сравнения строгие.
// Внутри транзакции выборка блокируется FOR UPDATE - это ключ атомарности
// пары "проверка доступности + вставка блока".
func (r *Repository) ListOverlapping(ctx context.Context, bayID int64, date time.Time, start, end types.TimeString) ([]*domain.BayAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(blockColumns...).
		From("bay_availability").
		Where(squirrel.Eq{"bay_id": bayID}).
		Where(squirrel.Eq{"date": dateOnly(date)}).
		Where(squirrel.Lt{"start_time": end}).
		Where(squirrel.Gt{"end_time": start}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	return r.list(ctx, executor, selectBuilder, "ListOverlapping")
}

// ListForBayAndDate получает все блоки бокса на дату
func (r *Repository) ListForBayAndDate(ctx context.Context, bayID int64, date time.Time) ([]*domain.BayAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(blockColumns...).
		From("bay_availability").
		Where(squirrel.Eq{"bay_id": bayID}).
		Where(squirrel.Eq{"date": dateOnly(date)}).
		OrderBy("start_time ASC")

	return r.list(ctx, executor, selectBuilder, "ListForBayAndDate")
}

// ListForDate получает все блоки на дату (для массовых выборок доступности)
func (r *Repository) ListForDate(ctx context.Context, date time.Time) ([]*domain.BayAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(blockColumns...).
		From("bay_availability").
		Where(squirrel.Eq{"date": dateOnly(date)}).
		OrderBy("bay_id ASC, start_time ASC")

	return r.list(ctx, executor, selectBuilder, "ListForDate")
}

// InsertBlock вставляет блок занятости.
// Для блока бронирования вызывается в одной транзакции со вставкой booking.
func (r *Repository) InsertBlock(ctx context.Context, block *domain.BayAvailability) (*domain.BayAvailability, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bay_availability").
		Columns(
			"bay_id",
			"date",
			"start_time",
			"end_time",
			"status",
			"booking_id",
			"reason",
		).
		Values(
			block.BayID,
			dateOnly(block.Date),
			block.StartTime,
			block.EndTime,
			block.Status,
			block.BookingID,
			block.Reason,
		).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: InsertBlock - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&block.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: InsertBlock - execute insert: %v", ErrExecQuery, err)
	}

	block.CreatedAt = createdAt.Time
	return block, nil
}

// DeleteByBookingID освобождает блок, принадлежащий бронированию.
// Возвращает ErrBlockNotFound, если блока нет (например, уже освобожден).
func (r *Repository) DeleteByBookingID(ctx context.Context, bookingID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("bay_availability").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: DeleteByBookingID - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: DeleteByBookingID - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: DeleteByBookingID - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBlockNotFound
	}

	return nil
}

func (r *Repository) list(ctx context.Context, executor dbmetrics.DBExecutor, builder squirrel.SelectBuilder, op string) ([]*domain.BayAvailability, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	blocks := make([]*domain.BayAvailability, 0)
	for rows.Next() {
		var block domain.BayAvailability
		var createdAt sql.NullTime
		if err := rows.Scan(
			&block.ID,
			&block.BayID,
			&block.Date,
			&block.StartTime,
			&block.EndTime,
			&block.Status,
			&block.BookingID,
			&block.Reason,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("%w: %s - scan block: %v", ErrScanRow, op, err)
		}
		block.CreatedAt = createdAt.Time
		blocks = append(blocks, &block)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}

	return blocks, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
