package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/rentscore/rent-service/internal/models"
)

// Postgres implements Store on database/sql with the lib/pq driver.
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open connection pool. Callers run Migrate first.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (r *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *Postgres) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE email = $1`
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *Postgres) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (r *Postgres) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (user_id, balance, currency)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, account.UserID, account.Balance, account.Currency).
		Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *Postgres) GetAccountByUserID(ctx context.Context, userID int64) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM accounts
		WHERE user_id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&account.ID, &account.UserID, &account.Balance, &account.Currency, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

func (r *Postgres) Deposit(ctx context.Context, userID, amount int64) (*models.Account, error) {
	account := &models.Account{}
	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2
		RETURNING id, user_id, balance, currency, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, amount, userID).
		Scan(&account.ID, &account.UserID, &account.Balance, &account.Currency, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("failed to deposit: %w", err)
	}
	return account, nil
}

func (r *Postgres) CreateLease(ctx context.Context, lease *models.Lease, slots []models.PaymentSlot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO leases (id, renter_id, landlord_id, rent_amount, start_date, end_date, first_due_date, location, score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		lease.ID, lease.RenterID, lease.LandlordID, lease.RentAmount,
		lease.StartDate, lease.EndDate, lease.FirstDueDate, lease.Location, lease.Score).
		Scan(&lease.CreatedAt, &lease.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	slotQuery := `
		INSERT INTO payment_slots (lease_id, idx, due_date)
		VALUES ($1, $2, $3)`
	for _, slot := range slots {
		if _, err := tx.ExecContext(ctx, slotQuery, slot.LeaseID, slot.Idx, slot.DueDate); err != nil {
			return fmt.Errorf("failed to create payment slot: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lease: %w", err)
	}
	return nil
}

const leaseColumns = `id, renter_id, landlord_id, rent_amount, start_date, end_date, first_due_date, location, score, created_at, updated_at`

func scanLease(row interface{ Scan(...any) error }) (*models.Lease, error) {
	lease := &models.Lease{}
	err := row.Scan(&lease.ID, &lease.RenterID, &lease.LandlordID, &lease.RentAmount,
		&lease.StartDate, &lease.EndDate, &lease.FirstDueDate, &lease.Location,
		&lease.Score, &lease.CreatedAt, &lease.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return lease, nil
}

func (r *Postgres) GetLease(ctx context.Context, id uuid.UUID) (*models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1`
	lease, err := scanLease(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}
	return lease, nil
}

func (r *Postgres) ListLeasesByRenter(ctx context.Context, renterID int64) ([]models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE renter_id = $1 ORDER BY created_at`
	return r.listLeases(ctx, query, renterID)
}

func (r *Postgres) ListLeasesByLandlord(ctx context.Context, landlordID int64) ([]models.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE landlord_id = $1 ORDER BY created_at`
	return r.listLeases(ctx, query, landlordID)
}

func (r *Postgres) listLeases(ctx context.Context, query string, arg any) ([]models.Lease, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	defer rows.Close()

	var out []models.Lease
	for rows.Next() {
		lease, err := scanLease(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		out = append(out, *lease)
	}
	return out, rows.Err()
}

func (r *Postgres) ListLeaseIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM leases`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lease ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan lease id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Postgres) UpdateLandlord(ctx context.Context, id uuid.UUID, landlordID int64) error {
	query := `
		UPDATE leases
		SET landlord_id = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, landlordID, id)
	if err != nil {
		return fmt.Errorf("failed to update landlord: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) GetSlots(ctx context.Context, leaseID uuid.UUID) ([]models.PaymentSlot, error) {
	return r.getSlots(ctx, r.db, leaseID, false)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *Postgres) getSlots(ctx context.Context, q querier, leaseID uuid.UUID, forUpdate bool) ([]models.PaymentSlot, error) {
	query := `
		SELECT lease_id, idx, due_date, on_time, paid, missed
		FROM payment_slots
		WHERE lease_id = $1
		ORDER BY idx`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	rows, err := q.QueryContext(ctx, query, leaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slots: %w", err)
	}
	defer rows.Close()

	var slots []models.PaymentSlot
	for rows.Next() {
		var slot models.PaymentSlot
		if err := rows.Scan(&slot.LeaseID, &slot.Idx, &slot.DueDate, &slot.OnTime, &slot.Paid, &slot.Missed); err != nil {
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if slots == nil {
		// distinguish an unknown lease from an empty schedule
		var exists bool
		if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM leases WHERE id = $1)`, leaseID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
	}
	return slots, nil
}

func (r *Postgres) ListPayments(ctx context.Context, leaseID uuid.UUID) ([]models.Payment, error) {
	query := `
		SELECT id, lease_id, slot_idx, payer_id, amount, on_time, paid_at
		FROM payments
		WHERE lease_id = $1
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, leaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := rows.Scan(&p.ID, &p.LeaseID, &p.SlotIdx, &p.PayerID, &p.Amount, &p.OnTime, &p.PaidAt); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ApplyPayment runs the decision against row-locked lease state and commits
// slot updates, the funds transfer, the score and the payment record in one
// transaction. Any error leaves the database untouched.
func (r *Postgres) ApplyPayment(ctx context.Context, leaseID uuid.UUID, decide PaymentDecision) (*models.Payment, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	lease, slots, err := r.lockLease(ctx, tx, leaseID)
	if err != nil {
		return nil, err
	}

	mut, err := decide(lease, slots)
	if err != nil {
		return nil, err
	}

	// Lock accounts in user-id order to avoid deadlocks between leases
	// sharing parties.
	first, second := mut.PayerID, mut.PayeeID
	if first > second {
		first, second = second, first
	}
	for _, userID := range []int64{first, second} {
		var balance int64
		err := tx.QueryRowContext(ctx,
			`SELECT balance FROM accounts WHERE user_id = $1 FOR UPDATE`, userID).Scan(&balance)
		if err == sql.ErrNoRows {
			return nil, ErrNoAccount
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock account: %w", err)
		}
		if userID == mut.PayerID && balance < mut.Amount {
			return nil, ErrInsufficientFunds
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance - $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`,
		mut.Amount, mut.PayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to debit payer: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance = balance + $1, updated_at = CURRENT_TIMESTAMP WHERE user_id = $2`,
		mut.Amount, mut.PayeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to credit payee: %w", err)
	}

	if err := r.markMissed(ctx, tx, leaseID, mut.MissedIdx); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE payment_slots SET paid = TRUE, on_time = $1 WHERE lease_id = $2 AND idx = $3`,
		mut.OnTime, leaseID, mut.SlotIdx)
	if err != nil {
		return nil, fmt.Errorf("failed to mark slot paid: %w", err)
	}

	if err := r.updateScore(ctx, tx, leaseID, mut.NewScore); err != nil {
		return nil, err
	}

	payment := &models.Payment{
		LeaseID: leaseID,
		SlotIdx: mut.SlotIdx,
		PayerID: mut.PayerID,
		Amount:  mut.Amount,
		OnTime:  mut.OnTime,
		PaidAt:  mut.PaidAt,
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO payments (lease_id, slot_idx, payer_id, amount, on_time, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		payment.LeaseID, payment.SlotIdx, payment.PayerID, payment.Amount, payment.OnTime, payment.PaidAt).
		Scan(&payment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}
	return payment, nil
}

func (r *Postgres) ApplySweep(ctx context.Context, leaseID uuid.UUID, decide SweepDecision) (*SweepMutation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	lease, slots, err := r.lockLease(ctx, tx, leaseID)
	if err != nil {
		return nil, err
	}

	mut, err := decide(lease, slots)
	if err != nil || mut == nil {
		return nil, err
	}

	if err := r.markMissed(ctx, tx, leaseID, mut.MissedIdx); err != nil {
		return nil, err
	}
	if err := r.updateScore(ctx, tx, leaseID, mut.NewScore); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sweep: %w", err)
	}
	return mut, nil
}

func (r *Postgres) lockLease(ctx context.Context, tx *sql.Tx, leaseID uuid.UUID) (*models.Lease, []models.PaymentSlot, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE id = $1 FOR UPDATE`
	lease, err := scanLease(tx.QueryRowContext(ctx, query, leaseID))
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock lease: %w", err)
	}
	slots, err := r.getSlots(ctx, tx, leaseID, true)
	if err != nil {
		return nil, nil, err
	}
	return lease, slots, nil
}

func (r *Postgres) markMissed(ctx context.Context, tx *sql.Tx, leaseID uuid.UUID, idxs []int) error {
	for _, idx := range idxs {
		_, err := tx.ExecContext(ctx,
			`UPDATE payment_slots SET missed = TRUE WHERE lease_id = $1 AND idx = $2`,
			leaseID, idx)
		if err != nil {
			return fmt.Errorf("failed to mark slot missed: %w", err)
		}
	}
	return nil
}

func (r *Postgres) updateScore(ctx context.Context, tx *sql.Tx, leaseID uuid.UUID, score int) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE leases SET score = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`,
		score, leaseID)
	if err != nil {
		return fmt.Errorf("failed to update score: %w", err)
	}
	return nil
}
