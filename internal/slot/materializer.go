package slot

import (
	"context"
	"time"
)

// The materializer owns every status transition of a slot record. All
// transitions are conditional on the expected prior state; a transition
// that changes zero rows means a concurrent writer got there first and is
// always reported as a conflict, never silently skipped.
//
// Callers must hold the slot's lock key for any transition out of
// StatusAvailable.

// LockIn moves a slot to StatusLocked for the holder, lazily creating the
// record when none exists yet for (template, date).
func LockIn(ctx context.Context, repo Repository, t *Template, date time.Time, holderID int64, source LockSource, lockExpiresAt *time.Time) (*Record, error) {
	records, err := repo.GetRecords(ctx, []int64{t.ID}, date)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		rec := &Record{
			TemplateID:    t.ID,
			Date:          date,
			Status:        StatusLocked,
			HolderID:      holderID,
			Source:        source,
			LockExpiresAt: lockExpiresAt,
		}
		if err := repo.InsertRecord(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	rec := records[0]
	if rec.Status != StatusAvailable {
		return nil, ErrUnavailable
	}

	changed, err := repo.TransitionStatus(ctx, TransitionParams{
		TemplateID:    t.ID,
		Date:          date,
		From:          StatusAvailable,
		To:            StatusLocked,
		HolderID:      holderID,
		Source:        source,
		LockExpiresAt: lockExpiresAt,
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		// Should not happen while the lock key is held; a zero-row update
		// here means the lock key and the record identity disagree.
		return nil, ErrStaleTransition
	}

	rec.Status = StatusLocked
	rec.HolderID = holderID
	rec.Source = source
	rec.LockExpiresAt = lockExpiresAt
	return rec, nil
}

// Commit moves the holder's locked slot to StatusBooked and binds it to
// the order. The update is fenced on the holder, so another user's lock
// can never be committed or its holder overwritten.
func Commit(ctx context.Context, repo Repository, templateID int64, date time.Time, holderID, orderID int64) error {
	changed, err := repo.TransitionStatus(ctx, TransitionParams{
		TemplateID:       templateID,
		Date:             date,
		From:             StatusLocked,
		To:               StatusBooked,
		HolderID:         holderID,
		OrderID:          orderID,
		Source:           LockSourceUser,
		ExpectedHolderID: &holderID,
	})
	if err != nil {
		return err
	}
	if !changed {
		return ErrStaleTransition
	}
	return nil
}

// Release returns the holder's locked or booked slot to StatusAvailable,
// clearing the holder. Fenced on the holder like Commit.
func Release(ctx context.Context, repo Repository, templateID int64, date time.Time, from Status, holderID int64) error {
	if from != StatusLocked && from != StatusBooked {
		return ErrStaleTransition
	}
	changed, err := repo.TransitionStatus(ctx, TransitionParams{
		TemplateID:       templateID,
		Date:             date,
		From:             from,
		To:               StatusAvailable,
		ExpectedHolderID: &holderID,
	})
	if err != nil {
		return err
	}
	if !changed {
		return ErrStaleTransition
	}
	return nil
}

// Block takes an available slot out of circulation for merchant
// maintenance, lazily creating the record when needed.
func Block(ctx context.Context, repo Repository, t *Template, date time.Time, operatorID int64) (*Record, error) {
	records, err := repo.GetRecords(ctx, []int64{t.ID}, date)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		rec := &Record{
			TemplateID: t.ID,
			Date:       date,
			Status:     StatusBlocked,
			HolderID:   operatorID,
			Source:     LockSourceMerchant,
		}
		if err := repo.InsertRecord(ctx, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}

	rec := records[0]
	if rec.Status != StatusAvailable {
		return nil, ErrUnavailable
	}

	changed, err := repo.TransitionStatus(ctx, TransitionParams{
		TemplateID: t.ID,
		Date:       date,
		From:       StatusAvailable,
		To:         StatusBlocked,
		HolderID:   operatorID,
		Source:     LockSourceMerchant,
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, ErrStaleTransition
	}

	rec.Status = StatusBlocked
	rec.HolderID = operatorID
	rec.Source = LockSourceMerchant
	return rec, nil
}

// Unblock returns a blocked slot to StatusAvailable.
func Unblock(ctx context.Context, repo Repository, templateID int64, date time.Time) error {
	changed, err := repo.TransitionStatus(ctx, TransitionParams{
		TemplateID: templateID,
		Date:       date,
		From:       StatusBlocked,
		To:         StatusAvailable,
	})
	if err != nil {
		return err
	}
	if !changed {
		return ErrStaleTransition
	}
	return nil
}
