package service

import (
	"time"

	"github.com/rentscore/rent-service/internal/models"
)

// Notifier receives the engine's outbound events. Implementations must not
// mutate lease state; notifications fire only after a payment has committed,
// and a delivery failure never fails the payment.
type Notifier interface {
	// PaymentRecorded is emitted once per accepted payment.
	PaymentRecorded(renter *models.User, payment *models.Payment) error

	// NextDueDate announces the following due date after a payment; nextDue
	// is the zero time when the schedule is exhausted.
	NextDueDate(renter *models.User, nextDue time.Time) error

	// PaymentOverdue is emitted by the sweep for each slot whose window
	// closed unpaid.
	PaymentOverdue(renter *models.User, slot models.PaymentSlot, amount int64, newScore int) error

	// UpcomingDue reminds the renter of an approaching due date.
	UpcomingDue(renter *models.User, slot models.PaymentSlot, amount int64) error
}
