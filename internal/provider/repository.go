package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nekogravitycat/servicehub-backend/internal/availability"
)

// Repository is the provider store. Save is a compare-and-set on Version:
// it fails with ErrConflict when the stored version differs from p.Version
// and increments p.Version on success.
type Repository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id string) (*Provider, error)
	GetByUserID(ctx context.Context, userID string) (*Provider, error)
	List(ctx context.Context, filter Filter) ([]*Provider, int, error)
	Save(ctx context.Context, p *Provider) error
}

var providerColumns = []string{
	"p.id", "p.user_id", "p.services", "p.availability", "p.booked_slots",
	"p.rating", "p.bio", "p.experience", "p.contact",
	"p.photo_path", "p.thumbnail_path", "p.version", "p.created_at", "p.updated_at",
}

type pgxRepository struct {
	pool *pgxpool.Pool
	psql squirrel.StatementBuilderType
}

// NewPgxRepository stores providers in public.providers, with services,
// schedule and contact kept as JSONB columns.
func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{
		pool: pool,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *pgxRepository) Create(ctx context.Context, p *Provider) error {
	query, args, err := r.psql.Insert("public.providers").
		Columns("id", "user_id", "services", "availability", "booked_slots",
			"rating", "bio", "experience", "contact",
			"photo_path", "thumbnail_path", "version", "created_at", "updated_at").
		Values(p.ID, p.UserID, nonNilServices(p.Services), nonNilDays(p.Schedule.Availability), nonNilBooked(p.Schedule.BookedSlots),
			p.Rating, p.Bio, p.Experience, p.Contact,
			p.PhotoPath, p.ThumbnailPath, p.Version, p.CreatedAt, p.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create provider query failed: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		var e *pgconn.PgError
		if errors.As(err, &e) && e.Code == pgerrcode.UniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("create provider failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Provider, error) {
	return r.getOne(ctx, squirrel.Eq{"p.id": id})
}

func (r *pgxRepository) GetByUserID(ctx context.Context, userID string) (*Provider, error) {
	return r.getOne(ctx, squirrel.Eq{"p.user_id": userID})
}

func (r *pgxRepository) getOne(ctx context.Context, where squirrel.Eq) (*Provider, error) {
	query, args, err := r.psql.Select(providerColumns...).
		From("public.providers p").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get provider query failed: %w", err)
	}

	var p Provider
	if err := r.pool.QueryRow(ctx, query, args...).Scan(scanTargets(&p)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get provider failed: %w", err)
	}
	return &p, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Provider, int, error) {
	query := r.psql.Select(append(providerColumns, "count(*) OVER() AS total_count")...).
		From("public.providers p")

	if filter.Category != "" {
		query = query.Where("p.services @> ?", []map[string]string{{"category": filter.Category}})
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	query = query.OrderBy("p.rating DESC", "p.created_at DESC").
		Limit(uint64(filter.PageSize)).
		Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list providers query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list providers failed: %w", err)
	}
	defer rows.Close()

	var providers []*Provider
	var total int
	for rows.Next() {
		var p Provider
		if err := rows.Scan(append(scanTargets(&p), &total)...); err != nil {
			return nil, 0, fmt.Errorf("scan provider failed: %w", err)
		}
		providers = append(providers, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate providers failed: %w", err)
	}
	return providers, total, nil
}

func (r *pgxRepository) Save(ctx context.Context, p *Provider) error {
	query, args, err := r.psql.Update("public.providers").
		Set("services", nonNilServices(p.Services)).
		Set("availability", nonNilDays(p.Schedule.Availability)).
		Set("booked_slots", nonNilBooked(p.Schedule.BookedSlots)).
		Set("rating", p.Rating).
		Set("bio", p.Bio).
		Set("experience", p.Experience).
		Set("contact", p.Contact).
		Set("photo_path", p.PhotoPath).
		Set("thumbnail_path", p.ThumbnailPath).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", p.UpdatedAt).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build save provider query failed: %w", err)
	}

	ct, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("save provider failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM public.providers WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check provider existence failed: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}

	p.Version++
	return nil
}

func scanTargets(p *Provider) []any {
	return []any{
		&p.ID, &p.UserID, &p.Services, &p.Schedule.Availability, &p.Schedule.BookedSlots,
		&p.Rating, &p.Bio, &p.Experience, &p.Contact,
		&p.PhotoPath, &p.ThumbnailPath, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	}
}

// JSONB columns are NOT NULL; nil slices would encode as null.

func nonNilServices(s []ServiceOffering) []ServiceOffering {
	if s == nil {
		return []ServiceOffering{}
	}
	return s
}

func nonNilDays(d []availability.Day) []availability.Day {
	if d == nil {
		return []availability.Day{}
	}
	return d
}

func nonNilBooked(b []availability.BookedSlot) []availability.BookedSlot {
	if b == nil {
		return []availability.BookedSlot{}
	}
	return b
}
