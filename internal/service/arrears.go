package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
	"github.com/rentscore/rent-service/internal/scoring"
)

// EstimateArrears computes informational statutory interest on every overdue
// unpaid slot, using the central-bank key rate. It is read-only and has no
// effect on the score. The caller must be a party to the lease.
func (s *Service) EstimateArrears(ctx context.Context, leaseID uuid.UUID, callerID int64) (*models.ArrearsReport, error) {
	lease, err := s.store.GetLease(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if callerID != lease.RenterID && callerID != lease.LandlordID {
		return nil, ErrForbidden
	}
	slots, err := s.store.GetSlots(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if s.rates == nil {
		return nil, fmt.Errorf("no rate source configured")
	}
	rate, err := s.rates.GetKeyRate()
	if err != nil {
		return nil, fmt.Errorf("failed to get key rate: %w", err)
	}

	now := s.now()
	report := &models.ArrearsReport{LeaseID: lease.ID.String()}
	for _, slot := range slots {
		if slot.Paid || !slot.DueDate.Before(now) {
			continue
		}
		days := scoring.DaysLate(slot.DueDate, now)
		interest := int64(math.Round(float64(lease.RentAmount) * rate / 100 * float64(days) / 365))
		item := models.ArrearsEstimate{
			SlotIdx:     slot.Idx,
			DueDate:     slot.DueDate,
			DaysLate:    days,
			KeyRate:     rate,
			InterestDue: interest,
			RentAmount:  lease.RentAmount,
			EstimatedAt: now,
		}
		report.Items = append(report.Items, item)
		report.TotalInterest += interest
	}
	return report, nil
}
