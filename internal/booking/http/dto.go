package http

import (
	"fmt"
	"time"

	"github.com/matchpoint-app/booking-core/internal/booking"
	"github.com/matchpoint-app/booking-core/internal/pkg/request"
	"github.com/matchpoint-app/booking-core/internal/pricing"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// QuoteBody requests a locked-in quote over a batch of slots.
type QuoteBody struct {
	OwnerID     int64   `json:"owner_id" binding:"required"`
	SlotIDs     []int64 `json:"slot_ids" binding:"required,min=1"`
	Date        string  `json:"date" binding:"required"`
	ServiceType string  `json:"service_type" binding:"omitempty,oneof=venue coach activity"`
}

type ConfirmBody struct {
	OrderID int64   `json:"order_id" binding:"required"`
	SlotIDs []int64 `json:"slot_ids" binding:"required,min=1"`
	Date    string  `json:"date" binding:"required"`
}

type CancelBody struct {
	SlotIDs []int64 `json:"slot_ids" binding:"required,min=1"`
	Date    string  `json:"date" binding:"required"`
}

type BlockBody struct {
	OwnerID int64   `json:"owner_id" binding:"required"`
	SlotIDs []int64 `json:"slot_ids" binding:"required,min=1"`
	Date    string  `json:"date" binding:"required"`
}

// ListAvailabilityRequest defines query parameters for the day listing.
type ListAvailabilityRequest struct {
	request.ListParams
	OwnerID     int64  `form:"owner_id" binding:"required"`
	Date        string `form:"date" binding:"required"`
	ServiceType string `form:"service_type" binding:"omitempty,oneof=venue coach activity"`
}

type ChargeResponse struct {
	ChargeID int64           `json:"charge_id"`
	Name     string          `json:"name"`
	Level    string          `json:"level"`
	Mode     string          `json:"mode"`
	Amount   decimal.Decimal `json:"amount"`
	Applied  bool            `json:"applied"`
}

type SlotQuoteResponse struct {
	SlotID      int64            `json:"slot_id"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	ItemCharges []ChargeResponse `json:"item_charges,omitempty"`
}

type QuoteResponse struct {
	OwnerID      int64               `json:"owner_id"`
	OwnerName    string              `json:"owner_name"`
	Date         string              `json:"date"`
	DayType      string              `json:"day_type"`
	Slots        []SlotQuoteResponse `json:"slots"`
	OrderCharges []ChargeResponse    `json:"order_charges,omitempty"`
	BasePrice    decimal.Decimal     `json:"base_price"`
	ExtrasTotal  decimal.Decimal     `json:"extras_total"`
	TotalPrice   decimal.Decimal     `json:"total_price"`
}

type DaySlotResponse struct {
	SlotID    int64  `json:"slot_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Status    string `json:"status"`
}

func NewQuoteResponse(q *pricing.Quote) QuoteResponse {
	resp := QuoteResponse{
		OwnerID:     q.OwnerID,
		OwnerName:   q.OwnerName,
		Date:        q.Date.Format(dateLayout),
		DayType:     q.DayType.String(),
		BasePrice:   q.BasePrice,
		ExtrasTotal: q.ExtrasTotal,
		TotalPrice:  q.TotalPrice,
	}
	for _, s := range q.Slots {
		resp.Slots = append(resp.Slots, SlotQuoteResponse{
			SlotID:      s.TemplateID,
			StartTime:   minuteClock(s.StartMinute),
			EndTime:     minuteClock(s.EndMinute),
			UnitPrice:   s.UnitPrice,
			ItemCharges: newChargeResponses(s.ItemCharges),
		})
	}
	resp.OrderCharges = newChargeResponses(q.OrderCharges)
	return resp
}

func newChargeResponses(charges []pricing.AppliedCharge) []ChargeResponse {
	var out []ChargeResponse
	for _, c := range charges {
		out = append(out, ChargeResponse{
			ChargeID: c.ChargeID,
			Name:     c.Name,
			Level:    chargeLevelString(c.Level),
			Mode:     chargeModeString(c.Mode),
			Amount:   c.Amount,
			Applied:  c.Applied,
		})
	}
	return out
}

func NewDaySlotResponse(d booking.DaySlot) DaySlotResponse {
	return DaySlotResponse{
		SlotID:    d.Template.ID,
		StartTime: minuteClock(d.Template.StartMinute),
		EndTime:   minuteClock(d.Template.EndMinute),
		Status:    d.Status.String(),
	}
}

func chargeLevelString(l pricing.ChargeLevel) string {
	if l == pricing.ChargeLevelItem {
		return "item"
	}
	return "order"
}

func chargeModeString(m pricing.ChargeMode) string {
	if m == pricing.ChargeModePercent {
		return "percent"
	}
	return "fixed"
}

// minuteClock renders minutes since midnight as HH:MM.
func minuteClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
