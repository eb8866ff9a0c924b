package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentscore/rent-service/internal/models"
)

func TestMemoryStore(t *testing.T) {
	var (
		ctx = context.Background()

		seedParties = func(t *testing.T, m *Memory) (renter, landlord *models.User) {
			renter = &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
			landlord = &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "x"}
			require.NoError(t, m.CreateUser(ctx, renter))
			require.NoError(t, m.CreateUser(ctx, landlord))
			require.NoError(t, m.CreateAccount(ctx, &models.Account{UserID: renter.ID, Currency: "EUR"}))
			require.NoError(t, m.CreateAccount(ctx, &models.Account{UserID: landlord.ID, Currency: "EUR"}))
			return renter, landlord
		}

		seedLease = func(t *testing.T, m *Memory, renter, landlord *models.User) *models.Lease {
			var start = time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
			lease := &models.Lease{
				ID:           uuid.New(),
				RenterID:     renter.ID,
				LandlordID:   landlord.ID,
				RentAmount:   1000,
				StartDate:    start,
				EndDate:      start.AddDate(1, 0, 0),
				FirstDueDate: start.AddDate(0, 0, 30),
				Score:        models.InitialScore,
			}
			slots := []models.PaymentSlot{
				{LeaseID: lease.ID, Idx: 0, DueDate: lease.FirstDueDate},
				{LeaseID: lease.ID, Idx: 1, DueDate: lease.FirstDueDate.AddDate(0, 0, 30)},
			}
			require.NoError(t, m.CreateLease(ctx, lease, slots))
			return lease
		}
	)

	t.Run("should reject duplicate emails", func(t *testing.T) {
		var m = NewMemory()
		seedParties(t, m)

		err := m.CreateUser(ctx, &models.User{Username: "other", Email: "alice@example.com"})

		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("should deposit into an existing account", func(t *testing.T) {
		var m = NewMemory()
		renter, _ := seedParties(t, m)

		account, err := m.Deposit(ctx, renter.ID, 500)

		require.NoError(t, err)
		assert.Equal(t, int64(500), account.Balance)
	})

	t.Run("should fail deposit without an account", func(t *testing.T) {
		var m = NewMemory()

		_, err := m.Deposit(ctx, 42, 500)

		assert.ErrorIs(t, err, ErrNoAccount)
	})

	t.Run("should apply a payment atomically", func(t *testing.T) {
		// Arrange
		var m = NewMemory()
		renter, landlord := seedParties(t, m)
		lease := seedLease(t, m, renter, landlord)
		_, err := m.Deposit(ctx, renter.ID, 5000)
		require.NoError(t, err)

		// Act
		payment, err := m.ApplyPayment(ctx, lease.ID, func(l *models.Lease, slots []models.PaymentSlot) (*PaymentMutation, error) {
			return &PaymentMutation{
				SlotIdx:  0,
				OnTime:   true,
				NewScore: l.Score + 10,
				Amount:   l.RentAmount,
				PayerID:  l.RenterID,
				PayeeID:  l.LandlordID,
				PaidAt:   l.FirstDueDate,
				NextDue:  slots[1].DueDate,
			}, nil
		})

		// Assert
		require.NoError(t, err)
		assert.Equal(t, int64(1), payment.ID)

		got, err := m.GetLease(ctx, lease.ID)
		require.NoError(t, err)
		assert.Equal(t, 110, got.Score)

		slots, err := m.GetSlots(ctx, lease.ID)
		require.NoError(t, err)
		assert.True(t, slots[0].Paid)
		assert.True(t, slots[0].OnTime)
		assert.False(t, slots[1].Paid)

		renterAcc, err := m.GetAccountByUserID(ctx, renter.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(4000), renterAcc.Balance)
		landlordAcc, err := m.GetAccountByUserID(ctx, landlord.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1000), landlordAcc.Balance)

		payments, err := m.ListPayments(ctx, lease.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
	})

	t.Run("should leave state untouched when the decision fails", func(t *testing.T) {
		var m = NewMemory()
		renter, landlord := seedParties(t, m)
		lease := seedLease(t, m, renter, landlord)
		boom := errors.New("boom")

		_, err := m.ApplyPayment(ctx, lease.ID, func(*models.Lease, []models.PaymentSlot) (*PaymentMutation, error) {
			return nil, boom
		})

		require.ErrorIs(t, err, boom)
		got, err := m.GetLease(ctx, lease.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InitialScore, got.Score)
	})

	t.Run("should roll back when funds are insufficient", func(t *testing.T) {
		var m = NewMemory()
		renter, landlord := seedParties(t, m)
		lease := seedLease(t, m, renter, landlord)

		_, err := m.ApplyPayment(ctx, lease.ID, func(l *models.Lease, _ []models.PaymentSlot) (*PaymentMutation, error) {
			return &PaymentMutation{
				SlotIdx:  0,
				OnTime:   true,
				NewScore: l.Score + 10,
				Amount:   l.RentAmount,
				PayerID:  l.RenterID,
				PayeeID:  l.LandlordID,
				PaidAt:   l.FirstDueDate,
			}, nil
		})

		require.ErrorIs(t, err, ErrInsufficientFunds)
		slots, err := m.GetSlots(ctx, lease.ID)
		require.NoError(t, err)
		assert.False(t, slots[0].Paid)
		got, err := m.GetLease(ctx, lease.ID)
		require.NoError(t, err)
		assert.Equal(t, models.InitialScore, got.Score)
	})

	t.Run("should treat a nil sweep mutation as a no-op", func(t *testing.T) {
		var m = NewMemory()
		renter, landlord := seedParties(t, m)
		lease := seedLease(t, m, renter, landlord)

		mut, err := m.ApplySweep(ctx, lease.ID, func(*models.Lease, []models.PaymentSlot) (*SweepMutation, error) {
			return nil, nil
		})

		require.NoError(t, err)
		assert.Nil(t, mut)
	})

	t.Run("should return not found for unknown leases", func(t *testing.T) {
		var m = NewMemory()

		_, err := m.GetLease(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = m.GetSlots(ctx, uuid.New())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
