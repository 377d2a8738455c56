package http

import (
	"time"

	"github.com/matchpoint-app/booking-core/internal/refund"
	"github.com/shopspring/decimal"
)

// PreviewBody asks what a refund would look like for a booked event.
// PaidAmount is optional; when present the response includes the computed
// refund amount.
type PreviewBody struct {
	RuleID     int64            `json:"rule_id" binding:"required"`
	EventStart time.Time        `json:"event_start" binding:"required"`
	PaidAmount *decimal.Decimal `json:"paid_amount"`
}

type PreviewResponse struct {
	Permitted               bool             `json:"permitted"`
	RefundPercent           *decimal.Decimal `json:"refund_percent,omitempty"`
	HandlingFeePercent      *decimal.Decimal `json:"handling_fee_percent,omitempty"`
	RequiresMerchantContact bool             `json:"requires_merchant_contact,omitempty"`
	RefundAmount            *decimal.Decimal `json:"refund_amount,omitempty"`
}

func NewPreviewResponse(outcome *refund.Outcome, ok bool, paid *decimal.Decimal) PreviewResponse {
	if !ok {
		return PreviewResponse{Permitted: false}
	}

	resp := PreviewResponse{
		Permitted:               true,
		RefundPercent:           &outcome.RefundPercent,
		HandlingFeePercent:      &outcome.HandlingFeePercent,
		RequiresMerchantContact: outcome.RequiresMerchantContact,
	}
	if paid != nil {
		amount := outcome.Amount(*paid)
		resp.RefundAmount = &amount
	}
	return resp
}
