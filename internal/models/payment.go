package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentSlot is one scheduled due date in a lease's payment schedule.
// Slots are created in bulk at lease creation and each transitions at most
// once: pending -> paid, or pending -> missed.
type PaymentSlot struct {
	LeaseID uuid.UUID `json:"lease_id"`
	Idx     int       `json:"idx"`
	DueDate time.Time `json:"due_date"`
	OnTime  bool      `json:"on_time"`
	Paid    bool      `json:"paid"`
	Missed  bool      `json:"missed"`
}

// Open reports whether the slot can still accept a payment.
func (s *PaymentSlot) Open() bool {
	return !s.Paid && !s.Missed
}

// Payment is the record of one accepted rent payment.
type Payment struct {
	ID      int64     `json:"id"`
	LeaseID uuid.UUID `json:"lease_id"`
	SlotIdx int       `json:"slot_idx"`
	PayerID int64     `json:"payer_id"`
	Amount  int64     `json:"amount"`
	OnTime  bool      `json:"on_time"`
	PaidAt  time.Time `json:"paid_at"`
}
