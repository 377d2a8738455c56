package pricing

import (
	"context"
	"time"

	"github.com/matchpoint-app/booking-core/internal/slot"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// AppliedCharge is one resolved extra charge line. Applied is false for
// opt-in charges that are surfaced but not added to the total.
type AppliedCharge struct {
	ChargeID int64
	Name     string
	Level    ChargeLevel
	Mode     ChargeMode
	Amount   decimal.Decimal
	Applied  bool
}

// SlotQuote is the price of a single slot.
type SlotQuote struct {
	TemplateID  int64
	StartMinute int
	EndMinute   int
	UnitPrice   decimal.Decimal
	ItemCharges []AppliedCharge
}

// Quote is the full price breakdown of a booking batch. BasePrice always
// equals the sum of unit prices, and TotalPrice equals BasePrice plus the
// applied charges.
type Quote struct {
	OwnerID      int64
	OwnerName    string
	Date         time.Time
	DayType      DayType
	Slots        []SlotQuote
	OrderCharges []AppliedCharge
	BasePrice    decimal.Decimal
	ExtrasTotal  decimal.Decimal
	TotalPrice   decimal.Decimal
}

// Engine computes price quotes from merchant configuration. All money is
// fixed-point decimal; percentages round half-up to two decimal places.
type Engine struct {
	repo Repository
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo}
}

// Quote prices a batch of slots for one owner on one date. A disabled or
// missing price template, or a slot start no period covers, fails the
// whole batch; there is no implicit default price.
func (e *Engine) Quote(ctx context.Context, templates []*slot.Template, owner *slot.Owner, date time.Time) (*Quote, error) {
	holiday, err := e.repo.IsHoliday(ctx, date)
	if err != nil {
		return nil, err
	}
	dayType := ClassifyDay(date, holiday)

	priceTemplate, err := e.repo.GetTemplateByOwner(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	charges, err := e.repo.GetExtraCharges(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	q := &Quote{
		OwnerID:     owner.ID,
		OwnerName:   owner.Name,
		Date:        date,
		DayType:     dayType,
		BasePrice:   decimal.Zero,
		ExtrasTotal: decimal.Zero,
	}

	for _, t := range templates {
		unitPrice, err := unitPriceFor(priceTemplate, t.StartMinute, dayType)
		if err != nil {
			return nil, err
		}

		sq := SlotQuote{
			TemplateID:  t.ID,
			StartMinute: t.StartMinute,
			EndMinute:   t.EndMinute,
			UnitPrice:   unitPrice,
		}

		for _, c := range charges {
			if c.Level != ChargeLevelItem || !c.AppliesTo(t.ID, date) {
				continue
			}
			applied := chargeAmount(c, unitPrice)
			sq.ItemCharges = append(sq.ItemCharges, applied)
			if applied.Applied {
				q.ExtrasTotal = q.ExtrasTotal.Add(applied.Amount)
			}
		}

		q.Slots = append(q.Slots, sq)
		q.BasePrice = q.BasePrice.Add(unitPrice)
	}

	for _, c := range charges {
		if c.Level != ChargeLevelOrder || !c.appliesToDay(date) {
			continue
		}
		applied := chargeAmount(c, q.BasePrice)
		q.OrderCharges = append(q.OrderCharges, applied)
		if applied.Applied {
			q.ExtrasTotal = q.ExtrasTotal.Add(applied.Amount)
		}
	}

	q.TotalPrice = q.BasePrice.Add(q.ExtrasTotal)
	return q, nil
}

// unitPriceFor locates the price period covering the slot's start time
// and reads the column for the day type.
func unitPriceFor(t *Template, startMinute int, dayType DayType) (decimal.Decimal, error) {
	for i := range t.Periods {
		if t.Periods[i].Covers(startMinute) {
			return t.Periods[i].PriceFor(dayType), nil
		}
	}
	return decimal.Zero, ErrPeriodNotCovered
}

// chargeAmount resolves the monetary amount of one charge against its
// base (order base price or per-slot unit price). Percentage amounts
// round half-up to the currency's minor unit.
func chargeAmount(c *ExtraCharge, base decimal.Decimal) AppliedCharge {
	amount := c.Value
	if c.Mode == ChargeModePercent {
		amount = base.Mul(c.Value).Div(oneHundred).Round(2)
	}
	return AppliedCharge{
		ChargeID: c.ID,
		Name:     c.Name,
		Level:    c.Level,
		Mode:     c.Mode,
		Amount:   amount,
		Applied:  c.Default,
	}
}
