package refund

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

// Tiers: under 24h before the event 30% back, 24-72h 70%, 72h and beyond
// full refund.
func testRule() *Rule {
	return &Rule{
		ID:      1,
		OwnerID: 10,
		Name:    "standard",
		Tiers: []Tier{
			{ID: 1, RuleID: 1, MinHoursBefore: 0, MaxHoursBefore: intPtr(24), RefundPercent: decimal.NewFromInt(30)},
			{ID: 2, RuleID: 1, MinHoursBefore: 24, MaxHoursBefore: intPtr(72), RefundPercent: decimal.NewFromInt(70)},
			{ID: 3, RuleID: 1, MinHoursBefore: 72, MaxHoursBefore: nil, RefundPercent: decimal.NewFromInt(100)},
		},
	}
}

func TestEvaluateTierSelection(t *testing.T) {
	rule := testRule()

	cases := []struct {
		hoursBefore float64
		wantPercent int64
		wantTier    int64
	}{
		{hoursBefore: 10, wantPercent: 30, wantTier: 1},
		{hoursBefore: 50, wantPercent: 70, wantTier: 2},
		{hoursBefore: 200, wantPercent: 100, wantTier: 3},
		{hoursBefore: 0, wantPercent: 30, wantTier: 1},
		{hoursBefore: 23.99, wantPercent: 30, wantTier: 1},
		// A boundary belongs to the tier above it.
		{hoursBefore: 24, wantPercent: 70, wantTier: 2},
		{hoursBefore: 72, wantPercent: 100, wantTier: 3},
	}
	for _, tc := range cases {
		outcome, ok := Evaluate(rule, tc.hoursBefore)
		require.True(t, ok, "hoursBefore=%v", tc.hoursBefore)
		assert.Equal(t, tc.wantTier, outcome.TierID, "hoursBefore=%v", tc.hoursBefore)
		assert.True(t, outcome.RefundPercent.Equal(decimal.NewFromInt(tc.wantPercent)), "hoursBefore=%v", tc.hoursBefore)
	}
}

func TestEvaluateEventAlreadyStarted(t *testing.T) {
	_, ok := Evaluate(testRule(), -1)
	assert.False(t, ok, "no refund after the event started")
}

func TestEvaluateNoMatchingTier(t *testing.T) {
	// Rule with a coverage gap below 48h.
	rule := &Rule{
		ID: 1,
		Tiers: []Tier{
			{ID: 1, RuleID: 1, MinHoursBefore: 48, MaxHoursBefore: nil, RefundPercent: decimal.NewFromInt(100)},
		},
	}

	_, ok := Evaluate(rule, 12)
	assert.False(t, ok, "uncovered hours mean no refund, not a fallback percentage")

	outcome, ok := Evaluate(rule, 48)
	require.True(t, ok)
	assert.Equal(t, int64(1), outcome.TierID)
}

func TestEvaluatePropagatesMerchantContact(t *testing.T) {
	rule := testRule()
	rule.Tiers[0].RequiresMerchantContact = true

	outcome, ok := Evaluate(rule, 5)
	require.True(t, ok)
	assert.True(t, outcome.RequiresMerchantContact)

	outcome, ok = Evaluate(rule, 50)
	require.True(t, ok)
	assert.False(t, outcome.RequiresMerchantContact)
}

func TestOutcomeAmount(t *testing.T) {
	outcome := &Outcome{
		RefundPercent:      decimal.NewFromInt(70),
		HandlingFeePercent: decimal.NewFromInt(5),
	}

	// 70% of 200 minus 5% of 200.
	amount := outcome.Amount(decimal.NewFromInt(200))
	assert.Equal(t, "130", amount.String())
}

func TestOutcomeAmountRounding(t *testing.T) {
	outcome := &Outcome{
		RefundPercent:      decimal.NewFromFloat(33.3),
		HandlingFeePercent: decimal.Zero,
	}

	// 33.3% of 99.99 = 33.296667 -> 33.3
	amount := outcome.Amount(decimal.NewFromFloat(99.99))
	assert.Equal(t, "33.3", amount.String())
}

func TestOutcomeAmountNeverNegative(t *testing.T) {
	outcome := &Outcome{
		RefundPercent:      decimal.NewFromInt(5),
		HandlingFeePercent: decimal.NewFromInt(10),
	}

	amount := outcome.Amount(decimal.NewFromInt(100))
	assert.True(t, amount.IsZero(), "fee larger than refund clamps to zero")
}
