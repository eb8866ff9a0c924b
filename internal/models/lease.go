package models

import (
	"time"

	"github.com/google/uuid"
)

// InitialScore is the reputation every lease starts with.
const InitialScore = 100

// Lease represents a rental agreement between a renter and a landlord.
// All fields except Score and LandlordID are immutable after creation;
// LandlordID changes only through an explicit reassignment.
type Lease struct {
	ID           uuid.UUID `json:"id"`
	RenterID     int64     `json:"renter_id"`
	LandlordID   int64     `json:"landlord_id"`
	RentAmount   int64     `json:"rent_amount"` // smallest currency unit
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	FirstDueDate time.Time `json:"first_due_date"`
	Location     string    `json:"location"`
	Score        int       `json:"score"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Expired reports whether the lease has ended at the given time.
func (l *Lease) Expired(at time.Time) bool {
	return at.After(l.EndDate)
}
