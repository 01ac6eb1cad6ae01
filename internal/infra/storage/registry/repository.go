package registry

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/LitKanna/TF-PickupService/internal/domain"
	"github.com/LitKanna/TF-PickupService/pkg/dbmetrics"
	"github.com/LitKanna/TF-PickupService/pkg/psqlbuilder"
)

// Repository репозиторий справочника зон и боксов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория справочника
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

var zoneColumns = []string{
	"id",
	"code",
	"name",
	"location",
	"has_forklift",
	"has_trolley_area",
	"covered",
	"truck_bays",
	"van_bays",
	"car_spots",
	"priority",
	"distance_from_entrance",
	"active",
	"created_at",
	"updated_at",
}

var bayColumns = []string{
	"id",
	"zone_id",
	"number",
	"type",
	"status",
	"active",
	"created_at",
	"updated_at",
}

// ListZones получает список зон в порядке приоритета
func (r *Repository) ListZones(ctx context.Context, activeOnly bool) ([]*domain.Zone, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(zoneColumns...).
		From("zones").
		OrderBy("priority ASC, id ASC")

	if activeOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListZones - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListZones - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	zones := make([]*domain.Zone, 0)
	for rows.Next() {
		zone, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		zones = append(zones, zone)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListZones - rows error: %v", ErrScanRow, err)
	}

	return zones, nil
}

// GetZone получает зону по ID
func (r *Repository) GetZone(ctx context.Context, id int64) (*domain.Zone, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(zoneColumns...).
		From("zones").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetZone - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	zone, err := scanZoneRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrZoneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetZone - scan zone: %v", ErrScanRow, err)
	}

	return zone, nil
}

// ListBays получает список боксов с фильтрацией
func (r *Repository) ListBays(ctx context.Context, filter BayFilter) ([]*domain.Bay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bayColumns...).
		From("bays").
		OrderBy("zone_id ASC, number ASC")

	if filter.ZoneID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"zone_id": *filter.ZoneID})
	}
	if filter.Type != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"type": *filter.Type})
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		selectBuilder = selectBuilder.Where(squirrel.Eq{"type": types})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.ActiveOnly {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"active": true})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBays - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBays - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	bays := make([]*domain.Bay, 0)
	for rows.Next() {
		var bay domain.Bay
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&bay.ID,
			&bay.ZoneID,
			&bay.Number,
			&bay.Type,
			&bay.Status,
			&bay.Active,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: ListBays - scan bay: %v", ErrScanRow, err)
		}
		bay.CreatedAt = createdAt.Time
		bay.UpdatedAt = updatedAt.Time
		bays = append(bays, &bay)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBays - rows error: %v", ErrScanRow, err)
	}

	return bays, nil
}

// GetBay получает бокс по ID
func (r *Repository) GetBay(ctx context.Context, id int64) (*domain.Bay, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bayColumns...).
		From("bays").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetBay - build select query: %v", ErrBuildQuery, err)
	}

	var bay domain.Bay
	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&bay.ID,
		&bay.ZoneID,
		&bay.Number,
		&bay.Type,
		&bay.Status,
		&bay.Active,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrBayNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBay - scan bay: %v", ErrScanRow, err)
	}

	bay.CreatedAt = createdAt.Time
	bay.UpdatedAt = updatedAt.Time
	return &bay, nil
}

// UpdateBayStatus обновляет операционный статус бокса.
// Вызывается жизненным циклом бронирования (check-in -> occupied, complete -> available).
func (r *Repository) UpdateBayStatus(ctx context.Context, id int64, status domain.BayStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bays").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateBayStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateBayStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateBayStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrBayNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanZone(rows *sql.Rows) (*domain.Zone, error) {
	zone, err := scanZoneRow(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: scanZone - scan row: %v", ErrScanRow, err)
	}
	return zone, nil
}

func scanZoneRow(row rowScanner) (*domain.Zone, error) {
	var zone domain.Zone
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&zone.ID,
		&zone.Code,
		&zone.Name,
		&zone.Location,
		&zone.HasForklift,
		&zone.HasTrolleyArea,
		&zone.Covered,
		&zone.TruckBays,
		&zone.VanBays,
		&zone.CarSpots,
		&zone.Priority,
		&zone.DistanceFromEntrance,
		&zone.Active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	zone.CreatedAt = createdAt.Time
	zone.UpdatedAt = updatedAt.Time
	return &zone, nil
}
