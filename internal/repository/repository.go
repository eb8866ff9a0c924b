package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrNoAccount         = errors.New("user has no account")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// PaymentMutation describes the full effect of one accepted payment. It is
// produced by a pure decision function and committed atomically by the store:
// slot updates, the renter-to-landlord transfer, the score replacement and
// the payment record all land together or not at all.
type PaymentMutation struct {
	MissedIdx []int // slots whose window closed before this payment
	SlotIdx   int   // the slot being paid
	OnTime    bool
	NewScore  int
	Amount    int64
	PayerID   int64
	PayeeID   int64
	PaidAt    time.Time
	NextDue   time.Time // zero when the schedule is exhausted after this slot
}

// SweepMutation marks expired slots as missed and replaces the score.
type SweepMutation struct {
	MissedIdx []int
	NewScore  int
}

// PaymentDecision inspects the committed lease state and either returns the
// mutation to apply or an error, in which case nothing is written.
type PaymentDecision func(lease *models.Lease, slots []models.PaymentSlot) (*PaymentMutation, error)

// SweepDecision works like PaymentDecision for the missed-payment sweep.
// Returning a nil mutation is a no-op.
type SweepDecision func(lease *models.Lease, slots []models.PaymentSlot) (*SweepMutation, error)

// Store is the persistence boundary. Payment application is serialized per
// lease: implementations guarantee that the decision function observes
// committed state and that its mutation commits atomically.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)

	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByUserID(ctx context.Context, userID int64) (*models.Account, error)
	Deposit(ctx context.Context, userID, amount int64) (*models.Account, error)

	CreateLease(ctx context.Context, lease *models.Lease, slots []models.PaymentSlot) error
	GetLease(ctx context.Context, id uuid.UUID) (*models.Lease, error)
	ListLeasesByRenter(ctx context.Context, renterID int64) ([]models.Lease, error)
	ListLeasesByLandlord(ctx context.Context, landlordID int64) ([]models.Lease, error)
	ListLeaseIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateLandlord(ctx context.Context, id uuid.UUID, landlordID int64) error

	GetSlots(ctx context.Context, leaseID uuid.UUID) ([]models.PaymentSlot, error)
	ListPayments(ctx context.Context, leaseID uuid.UUID) ([]models.Payment, error)

	ApplyPayment(ctx context.Context, leaseID uuid.UUID, decide PaymentDecision) (*models.Payment, error)
	ApplySweep(ctx context.Context, leaseID uuid.UUID, decide SweepDecision) (*SweepMutation, error)
}
