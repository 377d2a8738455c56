package refund

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Outcome is the refund decision for a matched tier.
type Outcome struct {
	RuleID                  int64
	TierID                  int64
	RefundPercent           decimal.Decimal
	HandlingFeePercent      decimal.Decimal
	RequiresMerchantContact bool
}

// Evaluate selects the refund tier covering hoursBefore. It is pure and
// side-effect-free. When no tier matches, including any negative
// hoursBefore (the event already started), no refund is permitted; there
// is no fallback percentage.
func Evaluate(rule *Rule, hoursBefore float64) (*Outcome, bool) {
	for i := range rule.Tiers {
		t := &rule.Tiers[i]
		if !t.Matches(hoursBefore) {
			continue
		}
		return &Outcome{
			RuleID:                  rule.ID,
			TierID:                  t.ID,
			RefundPercent:           t.RefundPercent,
			HandlingFeePercent:      t.HandlingFeePercent,
			RequiresMerchantContact: t.RequiresMerchantContact,
		}, true
	}
	return nil, false
}

// Amount computes the refund for the paid amount: refund percentage of
// paid minus the handling fee percentage of paid, each rounded half-up to
// two decimal places. The result never goes below zero.
func (o *Outcome) Amount(paid decimal.Decimal) decimal.Decimal {
	refund := paid.Mul(o.RefundPercent).Div(oneHundred).Round(2)
	fee := paid.Mul(o.HandlingFeePercent).Div(oneHundred).Round(2)
	amount := refund.Sub(fee)
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount
}
