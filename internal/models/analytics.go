package models

import "time"

// ArrearsEstimate represents informational statutory interest on overdue rent
type ArrearsEstimate struct {
	SlotIdx     int       `json:"slot_idx"`
	DueDate     time.Time `json:"due_date"`
	DaysLate    int       `json:"days_late"`
	KeyRate     float64   `json:"key_rate"` // annual percent, incl. margin
	InterestDue int64     `json:"interest_due"`
	RentAmount  int64     `json:"rent_amount"`
	EstimatedAt time.Time `json:"estimated_at"`
}

// ArrearsReport aggregates arrears interest across a lease's overdue slots
type ArrearsReport struct {
	LeaseID       string            `json:"lease_id"`
	TotalInterest int64             `json:"total_interest"`
	Items         []ArrearsEstimate `json:"items"`
}
