package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/matchpoint-app/booking-core/internal/pkg/apperror"
)

var (
	ErrAcquireTimeout = apperror.Conflict("slot is being booked by another request")
	ErrEmptyKeys      = apperror.Validation("no lock keys given")
)

// Handle identifies one acquired lock. The token fences the release so a
// coordinator never deletes a lock it no longer owns.
type Handle struct {
	Key   string
	Token string
}

// Coordinator provides mutual exclusion over named resources.
//
// AcquireAll is all-or-nothing: either every key is held when it returns,
// or none are. Acquisition of the full batch is bounded by wait. A lease
// of zero means the locks never auto-expire and must be released
// explicitly; a positive lease auto-expires them even if the caller
// crashes.
//
// ReleaseAll releases every handle it can and is safe to call from a
// deferred statement; it must be invoked on every exit path once
// AcquireAll has succeeded.
type Coordinator interface {
	AcquireAll(ctx context.Context, keys []string, wait, lease time.Duration) ([]Handle, error)
	ReleaseAll(ctx context.Context, handles []Handle) error
}

// Key builds the deterministic lock key for one slot template on one date.
// Two requests contending for the same slot always derive the same key.
func Key(templateID int64, date time.Time) string {
	return fmt.Sprintf("slot:lock:%d:%s", templateID, date.Format("2006-01-02"))
}

// Keys builds lock keys for a batch of slot templates on one date.
func Keys(templateIDs []int64, date time.Time) []string {
	keys := make([]string, len(templateIDs))
	for i, id := range templateIDs {
		keys[i] = Key(id, date)
	}
	return keys
}
