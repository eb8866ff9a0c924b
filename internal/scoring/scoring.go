package scoring

import "time"

// Policy holds the score deltas applied to payment outcomes. The exact
// magnitudes are product-configurable; defaults reproduce the historically
// observed behavior.
type Policy struct {
	OnTimeBonus   int // added when a slot is paid on or before its due date
	LatePerDay    int // subtracted per chargeable day of lateness
	LateGraceDays int // days of lateness that carry no penalty
	MissedPenalty int // subtracted when a slot's window closes unpaid
}

// DefaultPolicy returns the historically observed deltas: +10 on time,
// 1 point per day late after a 1-day grace, -30 for a missed cycle.
func DefaultPolicy() Policy {
	return Policy{
		OnTimeBonus:   10,
		LatePerDay:    1,
		LateGraceDays: 1,
		MissedPenalty: 30,
	}
}

// ApplyOutcome returns the score after a paid slot. Lateness is expressed in
// whole days; zero or negative means the payment was on time. The function is
// pure: same inputs, same output.
func (p Policy) ApplyOutcome(prev, daysLate int) int {
	if daysLate <= 0 {
		return prev + p.OnTimeBonus
	}
	penalty := p.LatePerDay * (daysLate - p.LateGraceDays)
	if penalty < 0 {
		penalty = 0
	}
	return prev - penalty
}

// ApplyMissed returns the score after a slot's payment window closed with no
// payment recorded.
func (p Policy) ApplyMissed(prev int) int {
	return prev - p.MissedPenalty
}

// DaysLate converts the signed difference between payment time and due date
// into whole days of lateness. Payments at or before the due date yield 0.
func DaysLate(due, paidAt time.Time) int {
	if !paidAt.After(due) {
		return 0
	}
	return int(paidAt.Sub(due) / (24 * time.Hour))
}
