package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rentscore/rent-service/internal/models"
)

// Memory is an in-memory Store for tests and local development. A single
// mutex serializes mutations, which also gives payments their one-at-a-time
// guarantee.
type Memory struct {
	mu sync.RWMutex

	users    map[int64]*models.User
	byEmail  map[string]int64
	accounts map[int64]*models.Account // keyed by user ID
	leases   map[uuid.UUID]*models.Lease
	slots    map[uuid.UUID][]models.PaymentSlot
	payments map[uuid.UUID][]models.Payment

	nextUserID    int64
	nextAccountID int64
	nextPaymentID int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:    make(map[int64]*models.User),
		byEmail:  make(map[string]int64),
		accounts: make(map[int64]*models.Account),
		leases:   make(map[uuid.UUID]*models.Lease),
		slots:    make(map[uuid.UUID][]models.PaymentSlot),
		payments: make(map[uuid.UUID][]models.Payment),
	}
}

func (m *Memory) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byEmail[user.Email]; exists {
		return ErrDuplicateEmail
	}
	m.nextUserID++
	user.ID = m.nextUserID
	user.CreatedAt = time.Now()
	cp := *user
	m.users[user.ID] = &cp
	m.byEmail[user.Email] = user.ID
	return nil
}

func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *m.users[id]
	return &cp, nil
}

func (m *Memory) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (m *Memory) CreateAccount(_ context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[account.UserID]; !ok {
		return ErrNotFound
	}
	m.nextAccountID++
	account.ID = m.nextAccountID
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	cp := *account
	m.accounts[account.UserID] = &cp
	return nil
}

func (m *Memory) GetAccountByUserID(_ context.Context, userID int64) (*models.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	account, ok := m.accounts[userID]
	if !ok {
		return nil, ErrNoAccount
	}
	cp := *account
	return &cp, nil
}

func (m *Memory) Deposit(_ context.Context, userID, amount int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[userID]
	if !ok {
		return nil, ErrNoAccount
	}
	account.Balance += amount
	account.UpdatedAt = time.Now()
	cp := *account
	return &cp, nil
}

func (m *Memory) CreateLease(_ context.Context, lease *models.Lease, slots []models.PaymentSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease.CreatedAt = time.Now()
	lease.UpdatedAt = lease.CreatedAt
	cp := *lease
	m.leases[lease.ID] = &cp
	m.slots[lease.ID] = append([]models.PaymentSlot(nil), slots...)
	return nil
}

func (m *Memory) GetLease(_ context.Context, id uuid.UUID) (*models.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lease, ok := m.leases[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *lease
	return &cp, nil
}

func (m *Memory) ListLeasesByRenter(_ context.Context, renterID int64) ([]models.Lease, error) {
	return m.listLeases(func(l *models.Lease) bool { return l.RenterID == renterID })
}

func (m *Memory) ListLeasesByLandlord(_ context.Context, landlordID int64) ([]models.Lease, error) {
	return m.listLeases(func(l *models.Lease) bool { return l.LandlordID == landlordID })
}

func (m *Memory) listLeases(match func(*models.Lease) bool) ([]models.Lease, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Lease
	for _, lease := range m.leases {
		if match(lease) {
			out = append(out, *lease)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListLeaseIDs(_ context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(m.leases))
	for id := range m.leases {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) UpdateLandlord(_ context.Context, id uuid.UUID, landlordID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[id]
	if !ok {
		return ErrNotFound
	}
	lease.LandlordID = landlordID
	lease.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) GetSlots(_ context.Context, leaseID uuid.UUID) ([]models.PaymentSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots, ok := m.slots[leaseID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]models.PaymentSlot(nil), slots...), nil
}

func (m *Memory) ListPayments(_ context.Context, leaseID uuid.UUID) ([]models.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.leases[leaseID]; !ok {
		return nil, ErrNotFound
	}
	return append([]models.Payment(nil), m.payments[leaseID]...), nil
}

func (m *Memory) ApplyPayment(_ context.Context, leaseID uuid.UUID, decide PaymentDecision) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[leaseID]
	if !ok {
		return nil, ErrNotFound
	}
	leaseView := *lease
	slots := append([]models.PaymentSlot(nil), m.slots[leaseID]...)

	mut, err := decide(&leaseView, slots)
	if err != nil {
		return nil, err
	}

	// The transfer is the last thing that can fail; nothing is mutated
	// until it is known to succeed.
	payerAcc, ok := m.accounts[mut.PayerID]
	if !ok {
		return nil, ErrNoAccount
	}
	payeeAcc, ok := m.accounts[mut.PayeeID]
	if !ok {
		return nil, ErrNoAccount
	}
	if payerAcc.Balance < mut.Amount {
		return nil, ErrInsufficientFunds
	}

	now := time.Now()
	payerAcc.Balance -= mut.Amount
	payerAcc.UpdatedAt = now
	payeeAcc.Balance += mut.Amount
	payeeAcc.UpdatedAt = now

	stored := m.slots[leaseID]
	for _, idx := range mut.MissedIdx {
		stored[idx].Missed = true
	}
	stored[mut.SlotIdx].Paid = true
	stored[mut.SlotIdx].OnTime = mut.OnTime

	lease.Score = mut.NewScore
	lease.UpdatedAt = now

	m.nextPaymentID++
	payment := models.Payment{
		ID:      m.nextPaymentID,
		LeaseID: leaseID,
		SlotIdx: mut.SlotIdx,
		PayerID: mut.PayerID,
		Amount:  mut.Amount,
		OnTime:  mut.OnTime,
		PaidAt:  mut.PaidAt,
	}
	m.payments[leaseID] = append(m.payments[leaseID], payment)
	return &payment, nil
}

func (m *Memory) ApplySweep(_ context.Context, leaseID uuid.UUID, decide SweepDecision) (*SweepMutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lease, ok := m.leases[leaseID]
	if !ok {
		return nil, ErrNotFound
	}
	leaseView := *lease
	slots := append([]models.PaymentSlot(nil), m.slots[leaseID]...)

	mut, err := decide(&leaseView, slots)
	if err != nil || mut == nil {
		return nil, err
	}

	stored := m.slots[leaseID]
	for _, idx := range mut.MissedIdx {
		stored[idx].Missed = true
	}
	lease.Score = mut.NewScore
	lease.UpdatedAt = time.Now()
	return mut, nil
}
