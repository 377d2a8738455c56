package refund

import (
	"context"
	"time"
)

type Service interface {
	// Preview evaluates the rule against the time remaining before the
	// event. ok is false when no tier matches and no refund is permitted.
	Preview(ctx context.Context, ruleID int64, eventStart, now time.Time) (outcome *Outcome, ok bool, err error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Preview(ctx context.Context, ruleID int64, eventStart, now time.Time) (*Outcome, bool, error) {
	rule, err := s.repo.GetRule(ctx, ruleID)
	if err != nil {
		return nil, false, err
	}

	hoursBefore := eventStart.Sub(now).Hours()
	outcome, ok := Evaluate(rule, hoursBefore)
	return outcome, ok, nil
}
