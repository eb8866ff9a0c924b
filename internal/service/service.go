package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/rentscore/rent-service/internal/config"
	"github.com/rentscore/rent-service/internal/metrics"
	"github.com/rentscore/rent-service/internal/models"
	"github.com/rentscore/rent-service/internal/repository"
	"github.com/rentscore/rent-service/internal/scoring"
)

// RateSource supplies the central-bank key rate used for arrears estimates.
type RateSource interface {
	GetKeyRate() (float64, error)
}

// Service handles business logic
type Service struct {
	store    repository.Store
	notifier Notifier
	rates    RateSource
	metrics  *metrics.Metrics
	config   *config.Config
	log      *logrus.Logger
	policy   scoring.Policy
	now      func() time.Time
}

// NewService initializes a new service. The scoring policy is taken from the
// configuration so the deltas stay tunable without a rebuild.
func NewService(store repository.Store, notifier Notifier, rates RateSource, m *metrics.Metrics, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		rates:    rates,
		metrics:  m,
		config:   cfg,
		log:      log,
		policy: scoring.Policy{
			OnTimeBonus:   cfg.OnTimeBonus,
			LatePerDay:    cfg.LatePerDay,
			LateGraceDays: cfg.LateGraceDays,
			MissedPenalty: cfg.MissedPenalty,
		},
		now: time.Now,
	}
}

// SetClock replaces the time source. Payment timeliness is always judged
// against this clock, never against caller-supplied timestamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   fmt.Sprintf("%d", user.ID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// CreateAccount creates a balance account for the authenticated user
func (s *Service) CreateAccount(ctx context.Context, userID int64, currency string) (*models.Account, error) {
	if currency == "" {
		currency = "EUR"
	}
	account := &models.Account{
		UserID:   userID,
		Balance:  0,
		Currency: currency,
	}

	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}

	s.log.Infof("Account created for user %d: %s", userID, account.Currency)
	return account, nil
}

// Deposit credits the user's account
func (s *Service) Deposit(ctx context.Context, userID, amount int64) (*models.Account, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("deposit amount must be positive")
	}
	account, err := s.store.Deposit(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Deposited %d to user %d account", amount, userID)
	return account, nil
}

// GetAccount returns the user's account
func (s *Service) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	return s.store.GetAccountByUserID(ctx, userID)
}
