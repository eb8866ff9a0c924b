package service

import "errors"

var (
	// ErrInvalidConfiguration rejects lease creation with inconsistent
	// dates or a non-positive rent amount. No lease is created.
	ErrInvalidConfiguration = errors.New("invalid lease configuration")

	// ErrLeaseExpired rejects payments after the lease end date.
	ErrLeaseExpired = errors.New("the lease has expired")

	// ErrWrongAmount rejects payments that do not match the rent amount
	// exactly; the caller may resubmit with the correct amount.
	ErrWrongAmount = errors.New("wrong rent amount")

	// ErrScheduleExhausted signals that every slot in the schedule has been
	// settled.
	ErrScheduleExhausted = errors.New("payment schedule exhausted")

	// ErrForbidden rejects calls whose authenticated identity does not hold
	// the required capability on the lease.
	ErrForbidden = errors.New("operation not authorized")

	ErrInvalidCredentials = errors.New("invalid credentials")
)
