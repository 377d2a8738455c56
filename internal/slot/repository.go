package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/matchpoint-app/booking-core/internal/db"
)

// TransitionParams describes a conditional status transition of one
// record. The update only applies when the current status equals From.
type TransitionParams struct {
	TemplateID    int64
	Date          time.Time
	From          Status
	To            Status
	HolderID      int64
	OrderID       int64
	Source        LockSource
	LockExpiresAt *time.Time

	// ExpectedHolderID fences the update to the current holder when set.
	// A holder mismatch counts as zero rows, same as a status mismatch.
	ExpectedHolderID *int64
}

type Repository interface {
	// WithTx returns a repository bound to the given transaction.
	WithTx(tx pgx.Tx) Repository

	GetOwner(ctx context.Context, id int64) (*Owner, error)
	GetTemplatesByIDs(ctx context.Context, ids []int64) ([]*Template, error)
	ListTemplatesByOwner(ctx context.Context, ownerID int64, serviceType ServiceType, page, pageSize int) ([]*Template, int, error)
	GetRecords(ctx context.Context, templateIDs []int64, date time.Time) ([]*Record, error)

	// InsertRecord lazily materializes a record for (template, date).
	// A concurrent insert of the same pair surfaces as ErrStaleTransition.
	InsertRecord(ctx context.Context, rec *Record) error

	// TransitionStatus performs a conditional update and reports whether
	// a row actually changed.
	TransitionStatus(ctx context.Context, p TransitionParams) (bool, error)
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

func (r *pgxRepository) GetOwner(ctx context.Context, id int64) (*Owner, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "name", "type").
		From("public.owners").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get owner query failed: %w", err)
	}

	var o Owner
	var ownerType string
	if err := r.q.QueryRow(ctx, query, args...).Scan(&o.ID, &o.Name, &ownerType); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("get owner failed: %w", err)
	}
	o.Type = ServiceType(ownerType)
	return &o, nil
}

func (r *pgxRepository) GetTemplatesByIDs(ctx context.Context, ids []int64) ([]*Template, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"t.id", "t.owner_id", "o.name",
		"t.start_minute", "t.end_minute", "t.service_types", "t.areas", "t.enabled", "t.created_at",
	).
		From("public.slot_templates t").
		Join("public.owners o ON t.owner_id = o.id").
		Where(squirrel.Eq{"t.id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get templates query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get templates failed: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows, nil)
}

func (r *pgxRepository) ListTemplatesByOwner(ctx context.Context, ownerID int64, serviceType ServiceType, page, pageSize int) ([]*Template, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"t.id", "t.owner_id", "o.name",
		"t.start_minute", "t.end_minute", "t.service_types", "t.areas", "t.enabled", "t.created_at",
		"count(*) OVER() as total_count",
	).
		From("public.slot_templates t").
		Join("public.owners o ON t.owner_id = o.id").
		Where(squirrel.Eq{"t.owner_id": ownerID}).
		Where(squirrel.Eq{"t.enabled": true})

	if serviceType != "" {
		query = query.Where("? = ANY(t.service_types)", string(serviceType))
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query = query.OrderBy("t.start_minute ASC").
		Limit(uint64(pageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list templates query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list templates failed: %w", err)
	}
	defer rows.Close()

	var total int
	templates, err := scanTemplates(rows, &total)
	if err != nil {
		return nil, 0, err
	}
	return templates, total, nil
}

func scanTemplates(rows pgx.Rows, total *int) ([]*Template, error) {
	var templates []*Template
	for rows.Next() {
		var t Template
		var serviceTypes []string

		dest := []any{
			&t.ID, &t.OwnerID, &t.OwnerName,
			&t.StartMinute, &t.EndMinute, &serviceTypes, &t.Areas, &t.Enabled, &t.CreatedAt,
		}
		if total != nil {
			dest = append(dest, total)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan template failed: %w", err)
		}

		t.ServiceTypes = make([]ServiceType, len(serviceTypes))
		for i, s := range serviceTypes {
			t.ServiceTypes[i] = ServiceType(s)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

func (r *pgxRepository) GetRecords(ctx context.Context, templateIDs []int64, date time.Time) ([]*Record, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"id", "template_id", "date", "status", "holder_id", "order_id",
		"source", "lock_expires_at", "created_at", "updated_at",
	).
		From("public.slot_records").
		Where(squirrel.Eq{"template_id": templateIDs}).
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get records query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get records failed: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.TemplateID, &rec.Date, &rec.Status, &rec.HolderID, &rec.OrderID,
			&rec.Source, &rec.LockExpiresAt, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan record failed: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

func (r *pgxRepository) InsertRecord(ctx context.Context, rec *Record) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.slot_records").
		Columns("template_id", "date", "status", "holder_id", "order_id", "source", "lock_expires_at").
		Values(rec.TemplateID, rec.Date, rec.Status, rec.HolderID, rec.OrderID, rec.Source, rec.LockExpiresAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert record query failed: %w", err)
	}

	err = r.q.QueryRow(ctx, query, args...).
		Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		// The unique (template_id, date) index turns a concurrent first
		// materialization into a conflict instead of a duplicate row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrStaleTransition
		}
		return fmt.Errorf("insert record failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) TransitionStatus(ctx context.Context, p TransitionParams) (bool, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	update := psql.Update("public.slot_records").
		Set("status", p.To).
		Set("holder_id", p.HolderID).
		Set("order_id", p.OrderID).
		Set("source", p.Source).
		Set("lock_expires_at", p.LockExpiresAt).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"template_id": p.TemplateID}).
		Where(squirrel.Eq{"date": p.Date}).
		Where(squirrel.Eq{"status": p.From})
	if p.ExpectedHolderID != nil {
		update = update.Where(squirrel.Eq{"holder_id": *p.ExpectedHolderID})
	}

	query, args, err := update.ToSql()
	if err != nil {
		return false, fmt.Errorf("build transition query failed: %w", err)
	}

	ct, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition record failed: %w", err)
	}
	return ct.RowsAffected() > 0, nil
}
