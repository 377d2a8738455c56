package booking

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/matchpoint-app/booking-core/internal/db"
	"github.com/matchpoint-app/booking-core/internal/lock"
	"github.com/matchpoint-app/booking-core/internal/pricing"
	"github.com/matchpoint-app/booking-core/internal/slot"
	"go.uber.org/zap"
)

type Service interface {
	// QuoteSlots locks in a batch of slots for the requester and returns
	// the price quote the order service persists. All-or-nothing: on any
	// failure no slot changes state.
	QuoteSlots(ctx context.Context, req QuoteRequest) (*pricing.Quote, error)

	// QuoteActivitySlots is QuoteSlots for activity-type bookings; it
	// runs the same locking and pricing core.
	QuoteActivitySlots(ctx context.Context, req QuoteRequest) (*pricing.Quote, error)

	// Confirm moves the holder's locked slots to booked.
	Confirm(ctx context.Context, req ConfirmRequest) error

	// Cancel releases the holder's locked or booked slots.
	Cancel(ctx context.Context, req CancelRequest) error

	// Block and Unblock manage merchant maintenance windows.
	Block(ctx context.Context, req BlockRequest) error
	Unblock(ctx context.Context, req BlockRequest) error

	// ListDay returns the owner's templates with their effective status
	// for the date.
	ListDay(ctx context.Context, ownerID int64, date time.Time, serviceType slot.ServiceType, page, pageSize int) ([]DaySlot, int, error)
}

// Config carries the lock tuning for the booking path.
type Config struct {
	LockWait  time.Duration
	LockLease time.Duration
}

type service struct {
	txr    db.TxRunner
	locks  lock.Coordinator
	slots  slot.Repository
	prices pricing.Repository
	logger *zap.Logger

	lockWait  time.Duration
	lockLease time.Duration
}

func NewService(
	txr db.TxRunner,
	locks lock.Coordinator,
	slots slot.Repository,
	prices pricing.Repository,
	logger *zap.Logger,
	cfg Config,
) Service {
	return &service{
		txr:       txr,
		locks:     locks,
		slots:     slots,
		prices:    prices,
		logger:    logger,
		lockWait:  cfg.LockWait,
		lockLease: cfg.LockLease,
	}
}

func (s *service) QuoteSlots(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	return s.quote(ctx, req)
}

func (s *service) QuoteActivitySlots(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	req.ServiceType = slot.ServiceActivity
	return s.quote(ctx, req)
}

func (s *service) quote(ctx context.Context, req QuoteRequest) (*pricing.Quote, error) {
	if err := validateBatchRequest(req.SlotIDs, req.Date); err != nil {
		return nil, err
	}
	date := dateOnly(req.Date)

	templates, err := s.slots.GetTemplatesByIDs(ctx, req.SlotIDs)
	if err != nil {
		return nil, err
	}
	if err := slot.ValidateBatch(templates, req.SlotIDs, req.OwnerID, req.ServiceType); err != nil {
		return nil, err
	}

	owner, err := s.slots.GetOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	// Fast pre-check: reject obviously taken slots without lock overhead.
	records, err := s.slots.GetRecords(ctx, req.SlotIDs, date)
	if err != nil {
		return nil, err
	}
	if err := slot.CheckAvailable(templates, records); err != nil {
		return nil, err
	}

	handles, err := s.locks.AcquireAll(ctx, lock.Keys(req.SlotIDs, date), s.lockWait, s.lockLease)
	if err != nil {
		return nil, err
	}
	defer func() {
		// Release must survive a canceled request context.
		releaseCtx := context.WithoutCancel(ctx)
		if rerr := s.locks.ReleaseAll(releaseCtx, handles); rerr != nil {
			s.logger.Warn("failed to release slot locks", zap.Error(rerr))
		}
	}()

	var quote *pricing.Quote
	err = s.txr.RunInTx(ctx, func(tx pgx.Tx) error {
		txSlots := s.slots.WithTx(tx)

		// Authoritative re-check: we hold the lock keys, so nobody else
		// can be mutating these records now.
		records, err := txSlots.GetRecords(ctx, req.SlotIDs, date)
		if err != nil {
			return err
		}
		if err := slot.CheckAvailable(templates, records); err != nil {
			return err
		}

		for _, t := range templates {
			if _, err := slot.LockIn(ctx, txSlots, t, date, req.RequesterID, slot.LockSourceUser, nil); err != nil {
				return err
			}
		}

		// Quote from the same transaction snapshot the lock-in used.
		engine := pricing.NewEngine(s.prices.WithTx(tx))
		quote, err = engine.Quote(ctx, templates, owner, date)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("slots locked in",
		zap.Int64("requester_id", req.RequesterID),
		zap.Int64("owner_id", req.OwnerID),
		zap.Int("slots", len(req.SlotIDs)),
		zap.String("date", date.Format("2006-01-02")),
		zap.String("total_price", quote.TotalPrice.String()),
	)
	return quote, nil
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) error {
	if err := validateBatchRequest(req.SlotIDs, req.Date); err != nil {
		return err
	}
	date := dateOnly(req.Date)

	return s.txr.RunInTx(ctx, func(tx pgx.Tx) error {
		txSlots := s.slots.WithTx(tx)
		for _, id := range req.SlotIDs {
			if err := slot.Commit(ctx, txSlots, id, date, req.HolderID, req.OrderID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Cancel(ctx context.Context, req CancelRequest) error {
	if err := validateBatchRequest(req.SlotIDs, req.Date); err != nil {
		return err
	}
	date := dateOnly(req.Date)

	return s.txr.RunInTx(ctx, func(tx pgx.Tx) error {
		txSlots := s.slots.WithTx(tx)

		records, err := txSlots.GetRecords(ctx, req.SlotIDs, date)
		if err != nil {
			return err
		}
		byTemplate := make(map[int64]*slot.Record, len(records))
		for _, r := range records {
			byTemplate[r.TemplateID] = r
		}

		for _, id := range req.SlotIDs {
			rec, ok := byTemplate[id]
			if !ok {
				return slot.ErrStaleTransition
			}
			if rec.HolderID != req.HolderID {
				return ErrNotHolder
			}
			// The release itself is holder-fenced too, closing the window
			// between this read and the update.
			if err := slot.Release(ctx, txSlots, id, date, rec.Status, req.HolderID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Block(ctx context.Context, req BlockRequest) error {
	if err := validateBatchRequest(req.SlotIDs, req.Date); err != nil {
		return err
	}
	date := dateOnly(req.Date)

	templates, err := s.slots.GetTemplatesByIDs(ctx, req.SlotIDs)
	if err != nil {
		return err
	}
	if len(templates) != len(req.SlotIDs) {
		return slot.ErrTemplateNotFound
	}
	for _, t := range templates {
		if t.OwnerID != req.OwnerID {
			return slot.ErrOwnerMismatch
		}
	}

	// Blocking transitions slots out of available, so it contends with
	// bookings on the same lock keys.
	handles, err := s.locks.AcquireAll(ctx, lock.Keys(req.SlotIDs, date), s.lockWait, s.lockLease)
	if err != nil {
		return err
	}
	defer func() {
		releaseCtx := context.WithoutCancel(ctx)
		if rerr := s.locks.ReleaseAll(releaseCtx, handles); rerr != nil {
			s.logger.Warn("failed to release slot locks", zap.Error(rerr))
		}
	}()

	return s.txr.RunInTx(ctx, func(tx pgx.Tx) error {
		txSlots := s.slots.WithTx(tx)
		for _, t := range templates {
			if _, err := slot.Block(ctx, txSlots, t, date, req.OperatorID); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) Unblock(ctx context.Context, req BlockRequest) error {
	if err := validateBatchRequest(req.SlotIDs, req.Date); err != nil {
		return err
	}
	date := dateOnly(req.Date)

	return s.txr.RunInTx(ctx, func(tx pgx.Tx) error {
		txSlots := s.slots.WithTx(tx)
		for _, id := range req.SlotIDs {
			if err := slot.Unblock(ctx, txSlots, id, date); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) ListDay(ctx context.Context, ownerID int64, date time.Time, serviceType slot.ServiceType, page, pageSize int) ([]DaySlot, int, error) {
	if date.IsZero() {
		return nil, 0, ErrNoDate
	}
	day := dateOnly(date)

	templates, total, err := s.slots.ListTemplatesByOwner(ctx, ownerID, serviceType, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if len(templates) == 0 {
		return nil, total, nil
	}

	ids := make([]int64, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	records, err := s.slots.GetRecords(ctx, ids, day)
	if err != nil {
		return nil, 0, err
	}
	byTemplate := make(map[int64]*slot.Record, len(records))
	for _, r := range records {
		byTemplate[r.TemplateID] = r
	}

	daySlots := make([]DaySlot, len(templates))
	for i, t := range templates {
		status := slot.StatusAvailable
		if rec, ok := byTemplate[t.ID]; ok {
			status = rec.Status
		}
		daySlots[i] = DaySlot{Template: t, Status: status}
	}
	return daySlots, total, nil
}

func validateBatchRequest(slotIDs []int64, date time.Time) error {
	if len(slotIDs) == 0 {
		return ErrNoSlots
	}
	if date.IsZero() {
		return ErrNoDate
	}
	seen := make(map[int64]struct{}, len(slotIDs))
	for _, id := range slotIDs {
		if _, ok := seen[id]; ok {
			return ErrDuplicateSlots
		}
		seen[id] = struct{}{}
	}
	return nil
}

// dateOnly strips the time-of-day so all record and lock-key dates agree.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
