package refund

import (
	"github.com/matchpoint-app/booking-core/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

var ErrRuleNotFound = apperror.NotFound("refund rule not found")

// Rule is a merchant-authored refund policy: an ordered set of disjoint
// time-before-event tiers. Disjointness is enforced when the rule is
// authored, not at evaluation time.
type Rule struct {
	ID      int64
	OwnerID int64
	Name    string
	Tiers   []Tier
}

// Tier maps the range [MinHoursBefore, MaxHoursBefore) of hours remaining
// before the event to a refund percentage. A nil MaxHoursBefore means
// unbounded above. The handling fee is subtracted from the refund, not
// added to it.
type Tier struct {
	ID                      int64
	RuleID                  int64
	MinHoursBefore          int
	MaxHoursBefore          *int
	RefundPercent           decimal.Decimal
	HandlingFeePercent      decimal.Decimal
	RequiresMerchantContact bool
}

// Matches reports whether hoursBefore falls inside the tier's range.
func (t *Tier) Matches(hoursBefore float64) bool {
	if hoursBefore < float64(t.MinHoursBefore) {
		return false
	}
	return t.MaxHoursBefore == nil || hoursBefore < float64(*t.MaxHoursBefore)
}
