package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
	"github.com/rentscore/rent-service/internal/repository"
	"github.com/rentscore/rent-service/internal/schedule"
	"github.com/rentscore/rent-service/internal/scoring"
)

// PayRent processes one rent payment against the lease's current slot at the
// service clock's current time. Preconditions (payer, expiry, amount, open
// slot) are checked in order and the first failure wins with no state mutated.
// Cycles whose window closed before this payment are charged the missed
// penalty and skipped. Slot mutation, funds transfer, score update and the
// payment record commit as one transaction; notifications fire only after
// the commit.
func (s *Service) PayRent(ctx context.Context, leaseID uuid.UUID, payerID, amount int64) (*models.Payment, error) {
	start := time.Now()
	now := s.now()

	var (
		nextDue     time.Time
		missedCount int
	)
	payment, err := s.store.ApplyPayment(ctx, leaseID, func(lease *models.Lease, slots []models.PaymentSlot) (*repository.PaymentMutation, error) {
		if lease.RenterID != payerID {
			return nil, ErrForbidden
		}
		if lease.Expired(now) {
			return nil, ErrLeaseExpired
		}
		if amount != lease.RentAmount {
			return nil, ErrWrongAmount
		}

		score := lease.Score
		mut := &repository.PaymentMutation{
			SlotIdx: -1,
			Amount:  amount,
			PayerID: payerID,
			PayeeID: lease.LandlordID,
			PaidAt:  now,
		}
		for i := range slots {
			if !slots[i].Open() {
				continue
			}
			// A slot whose following due date has arrived can no longer
			// be paid; it counts as missed.
			if !now.Before(slots[i].DueDate.Add(schedule.Cycle)) {
				mut.MissedIdx = append(mut.MissedIdx, slots[i].Idx)
				score = s.policy.ApplyMissed(score)
				continue
			}
			mut.SlotIdx = slots[i].Idx
			mut.OnTime = !now.After(slots[i].DueDate)
			score = s.policy.ApplyOutcome(score, scoring.DaysLate(slots[i].DueDate, now))
			if i+1 < len(slots) {
				mut.NextDue = slots[i+1].DueDate
			}
			break
		}
		if mut.SlotIdx < 0 {
			return nil, ErrScheduleExhausted
		}
		mut.NewScore = score
		nextDue = mut.NextDue
		missedCount = len(mut.MissedIdx)
		return mut, nil
	})
	if err != nil {
		s.metrics.ObserveRejection(rejectionReason(err))
		s.log.WithFields(map[string]any{
			"lease_id": leaseID,
			"payer":    payerID,
			"amount":   amount,
		}).Warnf("Payment rejected: %v", err)
		return nil, err
	}

	s.metrics.ObservePayment(payment.OnTime, start)
	if missedCount > 0 {
		s.metrics.SlotsMissed.Add(float64(missedCount))
	}
	s.log.WithFields(map[string]any{
		"lease_id": leaseID,
		"payer":    payerID,
		"amount":   amount,
		"slot":     payment.SlotIdx,
		"on_time":  payment.OnTime,
	}).Info("Rent payment recorded")

	s.emitPaymentEvents(ctx, payerID, payment, nextDue)
	return payment, nil
}

func (s *Service) emitPaymentEvents(ctx context.Context, payerID int64, payment *models.Payment, nextDue time.Time) {
	if s.notifier == nil {
		return
	}
	renter, err := s.store.FindUserByID(ctx, payerID)
	if err != nil {
		s.log.Errorf("Failed to load renter %d for notification: %v", payerID, err)
		return
	}
	if err := s.notifier.PaymentRecorded(renter, payment); err != nil {
		s.log.Errorf("Failed to emit payment-recorded event: %v", err)
	}
	if err := s.notifier.NextDueDate(renter, nextDue); err != nil {
		s.log.Errorf("Failed to emit next-due-date event: %v", err)
	}
}

// SweepMissed closes the payment window of every overdue slot across all
// leases, applying the missed penalty once per slot. Leases with a current
// open window are untouched; the sweep is idempotent.
func (s *Service) SweepMissed(ctx context.Context) error {
	ids, err := s.store.ListLeaseIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.sweepLease(ctx, id); err != nil {
			s.log.Errorf("Sweep failed for lease %s: %v", id, err)
		}
	}
	return nil
}

func (s *Service) sweepLease(ctx context.Context, leaseID uuid.UUID) error {
	now := s.now()

	var (
		missedSlots []models.PaymentSlot
		rentAmount  int64
		renterID    int64
	)
	mut, err := s.store.ApplySweep(ctx, leaseID, func(lease *models.Lease, slots []models.PaymentSlot) (*repository.SweepMutation, error) {
		rentAmount = lease.RentAmount
		renterID = lease.RenterID
		score := lease.Score
		m := &repository.SweepMutation{}
		for i := range slots {
			if slots[i].Open() && !now.Before(slots[i].DueDate.Add(schedule.Cycle)) {
				m.MissedIdx = append(m.MissedIdx, slots[i].Idx)
				missedSlots = append(missedSlots, slots[i])
				score = s.policy.ApplyMissed(score)
			}
		}
		if len(m.MissedIdx) == 0 {
			return nil, nil
		}
		m.NewScore = score
		return m, nil
	})
	if err != nil || mut == nil {
		return err
	}

	s.metrics.SlotsMissed.Add(float64(len(mut.MissedIdx)))
	s.log.WithFields(map[string]any{
		"lease_id": leaseID,
		"missed":   len(mut.MissedIdx),
		"score":    mut.NewScore,
	}).Info("Missed payment slots swept")

	if s.notifier == nil {
		return nil
	}
	renter, err := s.store.FindUserByID(ctx, renterID)
	if err != nil {
		return err
	}
	for _, slot := range missedSlots {
		if err := s.notifier.PaymentOverdue(renter, slot, rentAmount, mut.NewScore); err != nil {
			s.log.Errorf("Failed to send overdue notice for lease %s slot %d: %v", leaseID, slot.Idx, err)
		}
	}
	return nil
}

// RemindUpcoming notifies renters whose next due date falls within the
// configured reminder window. Intended to run daily from the scheduler.
func (s *Service) RemindUpcoming(ctx context.Context) error {
	if s.notifier == nil {
		return nil
	}
	ids, err := s.store.ListLeaseIDs(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	window := time.Duration(s.config.ReminderDays) * 24 * time.Hour
	for _, id := range ids {
		lease, err := s.store.GetLease(ctx, id)
		if err != nil {
			s.log.Errorf("Reminder skipped for lease %s: %v", id, err)
			continue
		}
		slots, err := s.store.GetSlots(ctx, id)
		if err != nil {
			s.log.Errorf("Reminder skipped for lease %s: %v", id, err)
			continue
		}
		for i := range slots {
			if !slots[i].Open() {
				continue
			}
			due := slots[i].DueDate
			if due.After(now) && !due.After(now.Add(window)) {
				renter, err := s.store.FindUserByID(ctx, lease.RenterID)
				if err != nil {
					break
				}
				if err := s.notifier.UpcomingDue(renter, slots[i], lease.RentAmount); err != nil {
					s.log.Errorf("Failed to send reminder for lease %s: %v", id, err)
				}
			}
			break
		}
	}
	return nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrLeaseExpired):
		return "lease_expired"
	case errors.Is(err, ErrWrongAmount):
		return "wrong_amount"
	case errors.Is(err, ErrScheduleExhausted):
		return "schedule_exhausted"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, repository.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, repository.ErrNoAccount):
		return "no_account"
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
