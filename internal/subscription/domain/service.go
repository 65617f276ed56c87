package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ProviderUpdate is a normalized subscription event from the payment
// provider, already stripped of transport detail by the payment adapter.
type ProviderUpdate struct {
	EventType        string
	CustomerCode     string
	SubscriptionCode string
	Status           string
	PlanCode         string
	Amount           int64
	Currency         string
	Interval         string
	NextPaymentAt    *time.Time
	FailureReason    string
}

// StatusView is the derived subscription state returned to callers.
type StatusView struct {
	Status          DisplayStatus `json:"status"`
	GrantsAccess    bool          `json:"grants_access"`
	DaysLeftInTrial int           `json:"days_left_in_trial,omitempty"`
	ProviderStatus  string        `json:"provider_status,omitempty"`
	NextPaymentAt   *time.Time    `json:"next_payment_at,omitempty"`
}

type Service interface {
	StartTrial(ctx context.Context) (StatusView, error)
	GetStatus(ctx context.Context) (StatusView, error)
	// ApplyProviderEvent runs inside the caller's transaction so the
	// replica update commits atomically with webhook dedup.
	ApplyProviderEvent(ctx context.Context, tx *gorm.DB, update ProviderUpdate) error
}

var (
	ErrInvalidLandlord       = errors.New("invalid_landlord")
	ErrLandlordNotFound      = errors.New("landlord_not_found")
	ErrTrialAlreadyStarted   = errors.New("trial_already_started")
	ErrUnknownProviderStatus = errors.New("unknown_provider_status")
)
