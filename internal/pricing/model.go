package pricing

import (
	"time"

	"github.com/matchpoint-app/booking-core/internal/pkg/apperror"
	"github.com/shopspring/decimal"
)

var (
	ErrTemplateNotFound = apperror.Configuration("price template missing or disabled")
	ErrPeriodNotCovered = apperror.Configuration("slot time not covered by any price period")
)

// DayType classifies a calendar date for pricing. Ordinals are persisted.
type DayType int16

const (
	DayTypeWeekday DayType = 0
	DayTypeWeekend DayType = 1
	DayTypeHoliday DayType = 2
)

func (d DayType) String() string {
	switch d {
	case DayTypeWeekday:
		return "weekday"
	case DayTypeWeekend:
		return "weekend"
	case DayTypeHoliday:
		return "holiday"
	default:
		return "unknown"
	}
}

// ClassifyDay resolves the day type of a date. Holiday wins over the
// weekend/weekday distinction.
func ClassifyDay(date time.Time, isHoliday bool) DayType {
	if isHoliday {
		return DayTypeHoliday
	}
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return DayTypeWeekend
	default:
		return DayTypeWeekday
	}
}

// Template is a merchant-authored price table: an ordered set of
// non-overlapping time-of-day periods.
type Template struct {
	ID      int64
	OwnerID int64
	Name    string
	Enabled bool
	Periods []Period
}

// Period carries one price per day type for a time-of-day range
// [StartMinute, EndMinute).
type Period struct {
	ID           int64
	TemplateID   int64
	StartMinute  int
	EndMinute    int
	WeekdayPrice decimal.Decimal
	WeekendPrice decimal.Decimal
	HolidayPrice decimal.Decimal
}

// Covers reports whether the period covers the given minute of day.
func (p *Period) Covers(minute int) bool {
	return minute >= p.StartMinute && minute < p.EndMinute
}

// PriceFor returns the period's price column for the day type.
func (p *Period) PriceFor(dt DayType) decimal.Decimal {
	switch dt {
	case DayTypeHoliday:
		return p.HolidayPrice
	case DayTypeWeekend:
		return p.WeekendPrice
	default:
		return p.WeekdayPrice
	}
}

// ChargeLevel scopes an extra charge to the whole order or to each item.
type ChargeLevel int16

const (
	ChargeLevelOrder ChargeLevel = 0
	ChargeLevelItem  ChargeLevel = 1
)

// ChargeMode selects fixed-amount or percentage charging.
type ChargeMode int16

const (
	ChargeModeFixed   ChargeMode = 0
	ChargeModePercent ChargeMode = 1
)

// ExtraCharge is an optional merchant fee. For ChargeModePercent, Value
// is a percentage (10 means 10%) multiplied against the order base price
// or the per-slot unit price depending on Level. Empty TemplateIDs or
// Weekdays means the charge applies to all resources or all days.
type ExtraCharge struct {
	ID          int64
	OwnerID     int64
	Name        string
	Level       ChargeLevel
	Mode        ChargeMode
	Value       decimal.Decimal
	TemplateIDs []int64
	Weekdays    []int16 // time.Weekday ordinals, Sunday = 0
	Default     bool
	Enabled     bool
}

// AppliesTo reports whether the charge covers the given slot template and
// date.
func (c *ExtraCharge) AppliesTo(templateID int64, date time.Time) bool {
	if !c.appliesToDay(date) {
		return false
	}
	if len(c.TemplateIDs) == 0 {
		return true
	}
	for _, id := range c.TemplateIDs {
		if id == templateID {
			return true
		}
	}
	return false
}

func (c *ExtraCharge) appliesToDay(date time.Time) bool {
	if len(c.Weekdays) == 0 {
		return true
	}
	wd := int16(date.Weekday())
	for _, d := range c.Weekdays {
		if d == wd {
			return true
		}
	}
	return false
}
