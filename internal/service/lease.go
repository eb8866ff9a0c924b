package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
	"github.com/rentscore/rent-service/internal/schedule"
)

// CreateLeaseParams carries the immutable lease configuration.
type CreateLeaseParams struct {
	RenterID     int64
	LandlordID   int64
	RentAmount   int64
	StartDate    time.Time
	EndDate      time.Time
	FirstDueDate time.Time
	Location     string
}

// CreateLease validates the configuration, generates the full payment
// schedule eagerly and persists both. The caller must be one of the parties.
func (s *Service) CreateLease(ctx context.Context, callerID int64, p CreateLeaseParams) (*models.Lease, error) {
	if callerID != p.RenterID && callerID != p.LandlordID {
		return nil, ErrForbidden
	}
	if p.RentAmount <= 0 {
		return nil, ErrInvalidConfiguration
	}
	if !p.StartDate.Before(p.EndDate) {
		return nil, ErrInvalidConfiguration
	}
	if !p.FirstDueDate.After(p.StartDate) || !p.FirstDueDate.Before(p.EndDate) {
		return nil, ErrInvalidConfiguration
	}
	if _, err := s.store.FindUserByID(ctx, p.RenterID); err != nil {
		return nil, err
	}
	if _, err := s.store.FindUserByID(ctx, p.LandlordID); err != nil {
		return nil, err
	}

	lease := &models.Lease{
		ID:           uuid.New(),
		RenterID:     p.RenterID,
		LandlordID:   p.LandlordID,
		RentAmount:   p.RentAmount,
		StartDate:    p.StartDate,
		EndDate:      p.EndDate,
		FirstDueDate: p.FirstDueDate,
		Location:     p.Location,
		Score:        models.InitialScore,
	}

	slots, err := schedule.Generate(lease.ID, lease.FirstDueDate, lease.EndDate)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateLease(ctx, lease, slots); err != nil {
		return nil, err
	}

	s.metrics.LeasesCreated.Inc()
	s.log.WithFields(map[string]any{
		"lease_id": lease.ID,
		"renter":   lease.RenterID,
		"landlord": lease.LandlordID,
		"slots":    len(slots),
	}).Info("Lease created")
	return lease, nil
}

// ListLeases returns the caller's leases, as renter by default or as
// landlord when role is "landlord".
func (s *Service) ListLeases(ctx context.Context, callerID int64, role string) ([]models.Lease, error) {
	if role == "landlord" {
		return s.store.ListLeasesByLandlord(ctx, callerID)
	}
	return s.store.ListLeasesByRenter(ctx, callerID)
}

// GetLease returns a lease by ID.
func (s *Service) GetLease(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	return s.store.GetLease(ctx, id)
}

// GetScore returns the latest committed score. It stays readable after the
// lease has expired.
func (s *Service) GetScore(ctx context.Context, leaseID uuid.UUID) (int, error) {
	lease, err := s.store.GetLease(ctx, leaseID)
	if err != nil {
		return 0, err
	}
	return lease.Score, nil
}

// GetPayments returns the full schedule snapshot, unpaid future slots
// included, in chronological order.
func (s *Service) GetPayments(ctx context.Context, leaseID uuid.UUID) ([]models.PaymentSlot, error) {
	return s.store.GetSlots(ctx, leaseID)
}

// ReassignLandlord transfers the landlord role to another user. Only the
// current landlord holds this capability; there is no implicit per-payment
// override.
func (s *Service) ReassignLandlord(ctx context.Context, leaseID uuid.UUID, callerID, newLandlordID int64) error {
	lease, err := s.store.GetLease(ctx, leaseID)
	if err != nil {
		return err
	}
	if lease.LandlordID != callerID {
		return ErrForbidden
	}
	if _, err := s.store.FindUserByID(ctx, newLandlordID); err != nil {
		return err
	}
	if err := s.store.UpdateLandlord(ctx, leaseID, newLandlordID); err != nil {
		return err
	}
	s.log.Infof("Lease %s landlord reassigned from %d to %d", leaseID, callerID, newLandlordID)
	return nil
}
