package refund

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/matchpoint-app/booking-core/internal/db"
)

type Repository interface {
	// GetRule returns the rule with its tiers ordered by MinHoursBefore.
	GetRule(ctx context.Context, id int64) (*Rule, error)
}

type pgxRepository struct {
	q db.Querier
}

func NewPgxRepository(q db.Querier) Repository {
	return &pgxRepository{q: q}
}

func (r *pgxRepository) GetRule(ctx context.Context, id int64) (*Rule, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "owner_id", "name").
		From("public.refund_rules").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get refund rule query failed: %w", err)
	}

	var rule Rule
	if err := r.q.QueryRow(ctx, query, args...).Scan(&rule.ID, &rule.OwnerID, &rule.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("get refund rule failed: %w", err)
	}

	query, args, err = psql.Select(
		"id", "rule_id", "min_hours_before", "max_hours_before",
		"refund_percent", "handling_fee_percent", "requires_merchant_contact",
	).
		From("public.refund_rule_details").
		Where(squirrel.Eq{"rule_id": id}).
		OrderBy("min_hours_before ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get refund tiers query failed: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get refund tiers failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t Tier
		if err := rows.Scan(
			&t.ID, &t.RuleID, &t.MinHoursBefore, &t.MaxHoursBefore,
			&t.RefundPercent, &t.HandlingFeePercent, &t.RequiresMerchantContact,
		); err != nil {
			return nil, fmt.Errorf("scan refund tier failed: %w", err)
		}
		rule.Tiers = append(rule.Tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &rule, nil
}
