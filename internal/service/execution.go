package service

import (
	"context"
	"errors"
	"time"

	"applet_portal/internal/domain" // Importing domain models

	"github.com/google/uuid"     // Execution identifiers
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// Default settlement behaviour. The delay and probability mirror the
// simulated execution backend this service stands in for.
const (
	DefaultSettleDelay  = 3 * time.Second // Fixed delay before settlement
	DefaultSuccessRate  = 0.8             // Probability an execution succeeds
	DefaultHistoryLimit = 20              // Most recent executions returned by List
)

// Publisher delivers execution snapshots to subscribers of a wallet
// address topic. Delivery is best-effort and at-most-once per connected
// subscriber.
type Publisher interface {
	Publish(walletAddress string, execution *domain.Execution)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(walletAddress string, execution *domain.Execution)

// Publish calls the wrapped function
func (f PublisherFunc) Publish(walletAddress string, execution *domain.Execution) {
	f(walletAddress, execution)
}

// ExecutionService owns the execution lifecycle: it creates pending
// records, schedules exactly one settlement timer per execution, and is
// the only writer of Execution.status after creation. A shutdown before
// a timer fires leaves that record pending; accepted for a simulated
// backend.
type ExecutionService struct {
	db           *gorm.DB      // Data store
	publisher    Publisher     // Fan-out channel for status updates
	resolver     Resolver      // Settlement outcome decision
	settleDelay  time.Duration // Delay before the settlement timer fires
	historyLimit int           // Max executions returned by List
}

// Option customizes an ExecutionService.
type Option func(*ExecutionService)

// WithResolver replaces the settlement resolver
func WithResolver(r Resolver) Option {
	return func(s *ExecutionService) { s.resolver = r }
}

// WithSettleDelay overrides the settlement delay
func WithSettleDelay(d time.Duration) Option {
	return func(s *ExecutionService) { s.settleDelay = d }
}

// WithHistoryLimit overrides the history page size
func WithHistoryLimit(n int) Option {
	return func(s *ExecutionService) { s.historyLimit = n }
}

// NewExecutionService creates an execution service with defaults
func NewExecutionService(db *gorm.DB, publisher Publisher, opts ...Option) *ExecutionService {
	s := &ExecutionService{
		db:           db,
		publisher:    publisher,
		resolver:     NewRandomResolver(DefaultSuccessRate),
		settleDelay:  DefaultSettleDelay,
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create records a pending execution for the wallet against the applet,
// publishes the pending snapshot and schedules the settlement timer.
// The fee is frozen from the applet's gas cost at call time.
func (s *ExecutionService) Create(ctx context.Context, walletAddress, appletID string) (*domain.Execution, error) {
	if walletAddress == "" || appletID == "" {
		return nil, ErrValidation
	}

	// Ensure the user exists (first invocation may precede first login)
	var user domain.User
	if err := s.db.WithContext(ctx).
		Where(domain.User{WalletAddress: walletAddress}).
		FirstOrCreate(&user).Error; err != nil {
		return nil, err
	}

	// The applet must exist before any row is written
	var applet domain.Applet
	if err := s.db.WithContext(ctx).First(&applet, "id = ?", appletID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppletNotFound
		}
		return nil, err
	}

	execution := domain.Execution{
		ID:       uuid.NewString(),     // Execution identifier
		Status:   domain.StatusPending, // Created pending
		Fee:      applet.GasCost,       // Fee frozen at creation time
		AppletID: applet.ID,            // Foreign key to Applet
		UserID:   user.ID,              // Foreign key to User
	}
	if err := s.db.WithContext(ctx).Create(&execution).Error; err != nil {
		return nil, err
	}
	execution.Applet = applet

	logrus.WithFields(logrus.Fields{
		"execution_id":   execution.ID,
		"applet_id":      applet.ID,
		"wallet_address": walletAddress,
		"fee":            execution.Fee,
	}).Info("Execution created")

	// Emit the pending snapshot before scheduling settlement so the
	// pending event is visible before the terminal one
	s.publisher.Publish(walletAddress, &execution)

	// One non-cancellable timer per execution; nothing else mutates the
	// record after this point
	time.AfterFunc(s.settleDelay, func() {
		s.settle(execution.ID, walletAddress)
	})

	return &execution, nil
}

// settle resolves the execution outcome exactly once. A store failure
// here is only logged; settlement has no failure path to the caller.
func (s *ExecutionService) settle(executionID, walletAddress string) {
	var execution domain.Execution
	if err := s.db.Preload("Applet").First(&execution, "id = ?", executionID).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"execution_id": executionID,
			"error":        err.Error(),
		}).Error("Settlement lookup failed")
		return
	}
	if execution.Terminal() {
		return
	}

	status := s.resolver.Resolve(&execution)
	if err := s.db.Model(&execution).Update("status", status).Error; err != nil {
		logrus.WithFields(logrus.Fields{
			"execution_id": executionID,
			"status":       status,
			"error":        err.Error(),
		}).Error("Settlement update failed")
		return
	}
	execution.Status = status

	logrus.WithFields(logrus.Fields{
		"execution_id": execution.ID,
		"status":       status,
	}).Info("Execution settled")

	s.publisher.Publish(walletAddress, &execution)
}

// List returns the most recent executions for the wallet, newest first.
// A wallet with no user record yet gets an empty slice, not an error.
func (s *ExecutionService) List(ctx context.Context, walletAddress string) ([]domain.Execution, error) {
	if walletAddress == "" {
		return nil, ErrValidation
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "wallet_address = ?", walletAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []domain.Execution{}, nil
		}
		return nil, err
	}
	var executions []domain.Execution
	if err := s.db.WithContext(ctx).
		Preload("Applet").
		Where("user_id = ?", user.ID).
		Order("timestamp desc").
		Limit(s.historyLimit).
		Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

// Clear deletes every execution owned by the wallet's user.
func (s *ExecutionService) Clear(ctx context.Context, walletAddress string) error {
	if walletAddress == "" {
		return ErrValidation
	}
	var user domain.User
	if err := s.db.WithContext(ctx).First(&user, "wallet_address = ?", walletAddress).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return s.db.WithContext(ctx).Where("user_id = ?", user.ID).Delete(&domain.Execution{}).Error
}
