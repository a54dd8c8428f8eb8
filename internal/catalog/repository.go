package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, o *Offering) error
	GetByID(ctx context.Context, id string) (*Offering, error)
	ListReservations(ctx context.Context, serviceID string) ([]*ReservationBrief, error)
	List(ctx context.Context, filter Filter) ([]*Offering, int, error)
	Update(ctx context.Context, o *Offering) error
	SetImage(ctx context.Context, id string, fileID *string) error
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var offeringColumns = []string{
	"s.id", "s.owner_id", "u.display_name", "s.name", "s.description", "s.price::float8",
	"s.image_file_id", "s.created_at", "s.updated_at",
	"(SELECT count(*) FROM public.reservations r WHERE r.service_id = s.id) AS reservation_count",
}

func baseSelect(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(append([]string{}, offeringColumns...), extra...)...).
		From("public.services s").
		Join("public.users u ON u.id = s.owner_id")
}

func scanOffering(row pgx.Row, extra ...any) (*Offering, error) {
	var o Offering
	dest := []any{
		&o.ID, &o.OwnerID, &o.OwnerName, &o.Name, &o.Description, &o.Price,
		&o.ImageFileID, &o.CreatedAt, &o.UpdatedAt, &o.ReservationCount,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *pgxRepository) Create(ctx context.Context, o *Offering) error {
	query, args, err := psql.Insert("public.services").
		Columns("owner_id", "name", "description", "price").
		Values(o.OwnerID, o.Name, o.Description, o.Price).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create service query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return fmt.Errorf("create service failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Offering, error) {
	query, args, err := baseSelect().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get service query failed: %w", err)
	}

	o, err := scanOffering(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get service failed: %w", err)
	}
	return o, nil
}

func (r *pgxRepository) ListReservations(ctx context.Context, serviceID string) ([]*ReservationBrief, error) {
	query, args, err := psql.Select(
		"r.id", "r.user_id", "u.display_name", "r.start_time", "r.end_time", "r.status",
	).
		From("public.reservations r").
		Join("public.users u ON u.id = r.user_id").
		Where(squirrel.Eq{"r.service_id": serviceID}).
		OrderBy("r.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build service reservations query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list service reservations failed: %w", err)
	}
	defer rows.Close()

	var out []*ReservationBrief
	for rows.Next() {
		var b ReservationBrief
		if err := rows.Scan(&b.ID, &b.UserID, &b.UserName, &b.StartTime, &b.EndTime, &b.Status); err != nil {
			return nil, fmt.Errorf("scan service reservation failed: %w", err)
		}
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate service reservations failed: %w", err)
	}
	return out, nil
}

// listQuery builds the paginated service listing.
func listQuery(filter Filter) squirrel.SelectBuilder {
	query := baseSelect("count(*) OVER() AS total_count")

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"s.name": like},
			squirrel.ILike{"s.description": like},
		})
	}
	if filter.OwnerID != "" {
		query = query.Where(squirrel.Eq{"s.owner_id": filter.OwnerID})
	}

	// Sorting, columns are whitelisted by the HTTP layer.
	orderBy := "created_at"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder == "ASC" {
		orderDir = "ASC"
	}
	query = query.OrderBy("s." + orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	return query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Offering, int, error) {
	sql, args, err := listQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list services query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list services failed: %w", err)
	}
	defer rows.Close()

	var result []*Offering
	var total int

	for rows.Next() {
		o, err := scanOffering(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan service failed: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate services failed: %w", err)
	}

	return result, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, o *Offering) error {
	query, args, err := psql.Update("public.services").
		Set("name", o.Name).
		Set("description", o.Description).
		Set("price", o.Price).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": o.ID}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build update service query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update service failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) SetImage(ctx context.Context, id string, fileID *string) error {
	query, args, err := psql.Update("public.services").
		Set("image_file_id", fileID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set service image query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("set service image failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the service; reservations go with it through ON DELETE CASCADE.
func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	query, args, err := psql.Delete("public.services").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete service query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete service failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
