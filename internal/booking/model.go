package booking

import (
	"time"

	"github.com/matchpoint-app/booking-core/internal/pkg/apperror"
	"github.com/matchpoint-app/booking-core/internal/slot"
)

var (
	ErrNoSlots        = apperror.Validation("at least one slot is required")
	ErrNoDate         = apperror.Validation("booking date is required")
	ErrDuplicateSlots = apperror.Validation("duplicate slot ids in request")
	ErrNotHolder      = apperror.Conflict("slot is held by another user")
)

// QuoteRequest asks for a locked-in price quote over a batch of slots.
type QuoteRequest struct {
	RequesterID int64
	OwnerID     int64
	SlotIDs     []int64
	Date        time.Time
	ServiceType slot.ServiceType
}

// ConfirmRequest commits previously locked slots to an order.
type ConfirmRequest struct {
	HolderID int64
	OrderID  int64
	SlotIDs  []int64
	Date     time.Time
}

// CancelRequest releases the holder's locked or booked slots.
type CancelRequest struct {
	HolderID int64
	SlotIDs  []int64
	Date     time.Time
}

// BlockRequest takes slots out of circulation (or back in) on behalf of
// the merchant.
type BlockRequest struct {
	OperatorID int64
	OwnerID    int64
	SlotIDs    []int64
	Date       time.Time
}

// DaySlot is one template with its effective status for a date. A slot
// with no record reads as available.
type DaySlot struct {
	Template *slot.Template
	Status   slot.Status
}
