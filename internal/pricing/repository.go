package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/matchpoint-app/booking-core/internal/db"
)

// Repository reads merchant pricing configuration. The booking path never
// writes through it; a quote computed inside a transaction sees one
// consistent snapshot of the config.
type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository

	// GetTemplateByOwner returns the owner's enabled price template with
	// its periods, or ErrTemplateNotFound.
	GetTemplateByOwner(ctx context.Context, ownerID int64) (*Template, error)

	// GetExtraCharges returns the owner's enabled extra charge templates.
	GetExtraCharges(ctx context.Context, ownerID int64) ([]*ExtraCharge, error)

	// IsHoliday reports whether the date appears in the holiday table.
	IsHoliday(ctx context.Context, date time.Time) (bool, error)
}

type pgxRepository struct {
	q db.Querier
}

func NewPgxRepository(q db.Querier) Repository {
	return &pgxRepository{q: q}
}

func (r *pgxRepository) WithTx(tx pgx.Tx) Repository {
	return &pgxRepository{q: tx}
}

func (r *pgxRepository) GetTemplateByOwner(ctx context.Context, ownerID int64) (*Template, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "owner_id", "name", "enabled").
		From("public.price_templates").
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"enabled": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get price template query failed: %w", err)
	}

	var t Template
	if err := r.q.QueryRow(ctx, query, args...).Scan(&t.ID, &t.OwnerID, &t.Name, &t.Enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("get price template failed: %w", err)
	}

	periods, err := r.getPeriods(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Periods = periods
	return &t, nil
}

func (r *pgxRepository) getPeriods(ctx context.Context, templateID int64) ([]Period, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "template_id", "start_minute", "end_minute",
		"weekday_price", "weekend_price", "holiday_price",
	).
		From("public.price_periods").
		Where(squirrel.Eq{"template_id": templateID}).
		OrderBy("start_minute ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get price periods query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get price periods failed: %w", err)
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		var p Period
		if err := rows.Scan(
			&p.ID, &p.TemplateID, &p.StartMinute, &p.EndMinute,
			&p.WeekdayPrice, &p.WeekendPrice, &p.HolidayPrice,
		); err != nil {
			return nil, fmt.Errorf("scan price period failed: %w", err)
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (r *pgxRepository) GetExtraCharges(ctx context.Context, ownerID int64) ([]*ExtraCharge, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "owner_id", "name", "level", "mode", "value",
		"template_ids", "weekdays", "is_default", "enabled",
	).
		From("public.extra_charge_templates").
		Where(squirrel.Eq{"owner_id": ownerID}).
		Where(squirrel.Eq{"enabled": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get extra charges query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get extra charges failed: %w", err)
	}
	defer rows.Close()

	var charges []*ExtraCharge
	for rows.Next() {
		var c ExtraCharge
		if err := rows.Scan(
			&c.ID, &c.OwnerID, &c.Name, &c.Level, &c.Mode, &c.Value,
			&c.TemplateIDs, &c.Weekdays, &c.Default, &c.Enabled,
		); err != nil {
			return nil, fmt.Errorf("scan extra charge failed: %w", err)
		}
		charges = append(charges, &c)
	}
	return charges, rows.Err()
}

func (r *pgxRepository) IsHoliday(ctx context.Context, date time.Time) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	sub, args, err := psql.Select("1").
		From("public.holidays").
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build holiday query failed: %w", err)
	}

	query := "SELECT EXISTS (" + sub + ")"

	var exists bool
	if err := r.q.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("check holiday failed: %w", err)
	}
	return exists, nil
}
