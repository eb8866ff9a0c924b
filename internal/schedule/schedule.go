package schedule

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
)

// Cycle is the fixed spacing between due dates.
const Cycle = 30 * 24 * time.Hour

// maxSlots bounds schedule generation; a lease spanning more cycles than this
// is a configuration error, not a real schedule.
const maxSlots = 1200

// ErrOverflow is returned when schedule generation would run past the
// representable range. It should never occur for a validly configured lease.
var ErrOverflow = errors.New("payment schedule overflow")

// Generate derives the ordered sequence of payment slots for a lease: slot i
// is due at firstDueDate + i*30d, generated while the due date does not pass
// endDate (a slot falling exactly on endDate is included). Pure and
// deterministic given the lease record.
func Generate(leaseID uuid.UUID, firstDue, end time.Time) ([]models.PaymentSlot, error) {
	var slots []models.PaymentSlot
	for due := firstDue; !due.After(end); due = due.Add(Cycle) {
		if len(slots) >= maxSlots {
			return nil, ErrOverflow
		}
		slots = append(slots, models.PaymentSlot{
			LeaseID: leaseID,
			Idx:     len(slots),
			DueDate: due,
		})
	}
	return slots, nil
}
