package slot

import (
	"time"

	"github.com/matchpoint-app/booking-core/internal/pkg/apperror"
)

var (
	ErrTemplateNotFound    = apperror.NotFound("slot template not found")
	ErrOwnerNotFound       = apperror.NotFound("resource owner not found")
	ErrUnavailable         = apperror.Conflict("slot is not available")
	ErrStaleTransition     = apperror.Conflict("slot state changed during update")
	ErrOwnerMismatch       = apperror.BusinessRule("slots must belong to a single owner")
	ErrTemplateDisabled    = apperror.BusinessRule("slot template is disabled")
	ErrServiceTypeMismatch = apperror.BusinessRule("slot does not support the requested service type")
	ErrNotContiguous       = apperror.BusinessRule("slots must form a contiguous time range")
)

// Status is the persisted booking state of a slot on a given date.
// Absence of a record is semantically StatusAvailable. The ordinals are
// stored in the database and must not be reordered.
type Status int16

const (
	StatusAvailable Status = 0
	StatusLocked    Status = 1
	StatusBooked    Status = 2
	StatusBlocked   Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusLocked:
		return "locked"
	case StatusBooked:
		return "booked"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// LockSource tags who placed a lock on a slot record.
type LockSource int16

const (
	LockSourceUser     LockSource = 0
	LockSourceMerchant LockSource = 1
	LockSourceSystem   LockSource = 2
)

// ServiceType classifies what kind of booking a slot template serves.
type ServiceType string

const (
	ServiceVenue    ServiceType = "venue"
	ServiceCoach    ServiceType = "coach"
	ServiceActivity ServiceType = "activity"
)

// Template is a recurring bookable interval for a resource (a court or a
// coach). Immutable once created; times are minutes since midnight.
type Template struct {
	ID           int64
	OwnerID      int64
	OwnerName    string
	StartMinute  int
	EndMinute    int
	ServiceTypes []ServiceType
	Areas        []string
	Enabled      bool
	CreatedAt    time.Time
}

// SupportsService reports whether the template serves the given service
// type. An empty requested type matches any template.
func (t *Template) SupportsService(st ServiceType) bool {
	if st == "" {
		return true
	}
	for _, s := range t.ServiceTypes {
		if s == st {
			return true
		}
	}
	return false
}

// Record is the materialized state of one (template, date) pair. Records
// are created on first contention, never pre-populated, and never
// deleted; they only transition between statuses.
type Record struct {
	ID            int64
	TemplateID    int64
	Date          time.Time // date only, UTC midnight
	Status        Status
	HolderID      int64 // user holding the lock/booking, 0 when released
	OrderID       int64 // order the booking belongs to, 0 until booked
	Source        LockSource
	LockExpiresAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Owner is a venue or a coach that slot templates belong to.
type Owner struct {
	ID   int64
	Name string
	Type ServiceType
}
