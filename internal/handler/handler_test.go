package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentscore/rent-service/internal/config"
	"github.com/rentscore/rent-service/internal/metrics"
	"github.com/rentscore/rent-service/internal/middleware"
	"github.com/rentscore/rent-service/internal/models"
	"github.com/rentscore/rent-service/internal/repository"
	"github.com/rentscore/rent-service/internal/service"
)

type nopNotifier struct{}

func (nopNotifier) PaymentRecorded(*models.User, *models.Payment) error { return nil }
func (nopNotifier) NextDueDate(*models.User, time.Time) error           { return nil }
func (nopNotifier) PaymentOverdue(*models.User, models.PaymentSlot, int64, int) error {
	return nil
}
func (nopNotifier) UpcomingDue(*models.User, models.PaymentSlot, int64) error { return nil }

type fixedRates struct{ rate float64 }

func (f fixedRates) GetKeyRate() (float64, error) { return f.rate, nil }

// api wires the full router over the in-memory store so tests exercise the
// same route table and middleware as cmd/api.
type api struct {
	router *mux.Router
	svc    *service.Service
	clock  time.Time
}

func newAPI(t *testing.T) *api {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		ReminderDays:  3,
		OnTimeBonus:   10,
		LatePerDay:    1,
		LateGraceDays: 1,
		MissedPenalty: 30,
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	a := &api{clock: time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)}
	a.svc = service.NewService(repository.NewMemory(), nopNotifier{}, fixedRates{rate: 26.0},
		metrics.New(prometheus.NewRegistry()), cfg, logger)
	a.svc.SetClock(func() time.Time { return a.clock })
	h := NewHandler(a.svc, logger)

	r := mux.NewRouter()
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts/me", h.GetAccount).Methods("GET")
	authRouter.HandleFunc("/accounts/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/leases", h.CreateLease).Methods("POST")
	authRouter.HandleFunc("/leases", h.ListLeases).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/payments", h.PayRent).Methods("POST")
	authRouter.HandleFunc("/leases/{id}/payments", h.GetPayments).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/score", h.GetScore).Methods("GET")
	authRouter.HandleFunc("/leases/{id}/landlord", h.ReassignLandlord).Methods("PUT")
	authRouter.HandleFunc("/leases/{id}/arrears", h.GetArrears).Methods("GET")
	a.router = r
	return a
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

// signup registers a user, logs in and opens a funded account.
func (a *api) signup(t *testing.T, name string, deposit int64) (userID int64, token string) {
	t.Helper()
	rec := a.do(t, "POST", "/register", "", map[string]string{
		"username": name,
		"email":    name + "@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[models.User](t, rec)

	rec = a.do(t, "POST", "/login", "", map[string]string{
		"email":    name + "@example.com",
		"password": "password1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	token = decode[struct {
		Token string `json:"token"`
	}](t, rec).Token

	rec = a.do(t, "POST", "/accounts", token, map[string]string{"currency": "EUR"})
	require.Equal(t, http.StatusCreated, rec.Code)
	if deposit > 0 {
		rec = a.do(t, "POST", "/accounts/deposit", token, map[string]int64{"amount": deposit})
		require.Equal(t, http.StatusOK, rec.Code)
	}
	return user.ID, token
}

func (a *api) createLease(t *testing.T, token string, renterID, landlordID int64) *models.Lease {
	t.Helper()
	rec := a.do(t, "POST", "/leases", token, map[string]any{
		"renter_id":      renterID,
		"landlord_id":    landlordID,
		"rent_amount":    1000,
		"start_date":     a.clock,
		"end_date":       a.clock.Add(365 * 24 * time.Hour),
		"first_due_date": a.clock.Add(30 * 24 * time.Hour),
		"location":       "34 rue Feutrier, 75018 Paris",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	lease := decode[models.Lease](t, rec)
	return &lease
}

func TestAPI(t *testing.T) {
	t.Run("should pay rent end to end and report the raised score", func(t *testing.T) {
		// Arrange
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 5000)
		landlordID, landlordToken := a.signup(t, "bob", 0)
		lease := a.createLease(t, renterToken, renterID, landlordID)

		// Act
		rec := a.do(t, "POST", fmt.Sprintf("/leases/%s/payments", lease.ID), renterToken,
			map[string]int64{"amount": 1000})

		// Assert
		require.Equal(t, http.StatusCreated, rec.Code)
		payment := decode[models.Payment](t, rec)
		assert.True(t, payment.OnTime)
		assert.Equal(t, int64(1000), payment.Amount)

		rec = a.do(t, "GET", fmt.Sprintf("/leases/%s/score", lease.ID), renterToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		score := decode[struct {
			Score int `json:"score"`
		}](t, rec)
		assert.Equal(t, 110, score.Score)

		rec = a.do(t, "GET", "/accounts/me", landlordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		account := decode[models.Account](t, rec)
		assert.Equal(t, int64(1000), account.Balance)
	})

	t.Run("should reject requests without a valid token", func(t *testing.T) {
		a := newAPI(t)

		rec := a.do(t, "GET", "/leases", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = a.do(t, "GET", "/leases", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("should map duplicate registration to 409", func(t *testing.T) {
		a := newAPI(t)
		a.signup(t, "alice", 0)

		rec := a.do(t, "POST", "/register", "", map[string]string{
			"username": "alice2",
			"email":    "alice@example.com",
			"password": "password1",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("should map a wrong amount to 400", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 5000)
		landlordID, _ := a.signup(t, "bob", 0)
		lease := a.createLease(t, renterToken, renterID, landlordID)

		rec := a.do(t, "POST", fmt.Sprintf("/leases/%s/payments", lease.ID), renterToken,
			map[string]int64{"amount": 999})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "wrong rent amount", decode[errorResponse](t, rec).Error)
	})

	t.Run("should map a non-party payer to 403", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 5000)
		landlordID, _ := a.signup(t, "bob", 0)
		_, strangerToken := a.signup(t, "mallory", 5000)
		lease := a.createLease(t, renterToken, renterID, landlordID)

		rec := a.do(t, "POST", fmt.Sprintf("/leases/%s/payments", lease.ID), strangerToken,
			map[string]int64{"amount": 1000})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("should map an underfunded payment to 402", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 10)
		landlordID, _ := a.signup(t, "bob", 0)
		lease := a.createLease(t, renterToken, renterID, landlordID)

		rec := a.do(t, "POST", fmt.Sprintf("/leases/%s/payments", lease.ID), renterToken,
			map[string]int64{"amount": 1000})

		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("should map an unknown lease to 404 and a bad id to 400", func(t *testing.T) {
		a := newAPI(t)
		_, token := a.signup(t, "alice", 0)

		rec := a.do(t, "GET", "/leases/3f1d3f9e-0000-0000-0000-000000000000/score", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = a.do(t, "GET", "/leases/not-a-uuid/score", token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should scope lease listings by role", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 0)
		landlordID, landlordToken := a.signup(t, "bob", 0)
		a.createLease(t, renterToken, renterID, landlordID)

		rec := a.do(t, "GET", "/leases", renterToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Lease](t, rec), 1)

		rec = a.do(t, "GET", "/leases?role=landlord", landlordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decode[[]models.Lease](t, rec), 1)

		rec = a.do(t, "GET", "/leases", landlordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decode[[]models.Lease](t, rec))
	})

	t.Run("should let only the current landlord reassign the lease", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 0)
		landlordID, landlordToken := a.signup(t, "bob", 0)
		newLandlordID, _ := a.signup(t, "carol", 0)
		lease := a.createLease(t, renterToken, renterID, landlordID)

		rec := a.do(t, "PUT", fmt.Sprintf("/leases/%s/landlord", lease.ID), renterToken,
			map[string]int64{"landlord_id": newLandlordID})
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = a.do(t, "PUT", fmt.Sprintf("/leases/%s/landlord", lease.ID), landlordToken,
			map[string]int64{"landlord_id": newLandlordID})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("should estimate arrears for an overdue slot", func(t *testing.T) {
		a := newAPI(t)
		renterID, renterToken := a.signup(t, "alice", 0)
		landlordID, _ := a.signup(t, "bob", 0)
		lease := a.createLease(t, renterToken, renterID, landlordID)
		a.clock = a.clock.Add(40 * 24 * time.Hour)

		rec := a.do(t, "GET", fmt.Sprintf("/leases/%s/arrears", lease.ID), renterToken, nil)

		require.Equal(t, http.StatusOK, rec.Code)
		report := decode[models.ArrearsReport](t, rec)
		require.Len(t, report.Items, 1)
		assert.InDelta(t, 26.0, report.Items[0].KeyRate, 0.001)
		assert.Equal(t, 10, report.Items[0].DaysLate)
	})
}
