// Package domain contains canonical payment events and adapter contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"gorm.io/datatypes"
)

// EventRecord is the persisted webhook event. The unique index on
// (provider, provider_event_id) is the replay guard.
type EventRecord struct {
	ID              snowflake.ID   `gorm:"primaryKey"`
	Provider        string         `gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event"`
	ProviderEventID string         `gorm:"type:text;not null;uniqueIndex:ux_payment_events_provider_event"`
	EventType       string         `gorm:"type:text;not null"`
	LandlordID      *snowflake.ID  `gorm:"index"`
	Payload         datatypes.JSON `gorm:"type:jsonb;not null"`
	ReceivedAt      time.Time      `gorm:"not null"`
	ProcessedAt     *time.Time     `gorm:""`
}

// TableName sets the database table name.
func (EventRecord) TableName() string { return "payment_events" }

// Canonical event types produced by adapters.
const (
	EventTypePaymentSucceeded   = "payment_succeeded"
	EventTypePaymentPending     = "payment_pending"
	EventTypePaymentFailed      = "payment_failed"
	EventTypeRefunded           = "refunded"
	EventTypeSubscriptionUpdate = "subscription_update"
)

// PaymentEvent is the provider-agnostic event parsed by adapters.
// InvoiceReference carries whatever the provider knows about the target
// invoice: a snowflake ID from checkout metadata or the provider's own
// payment-request code stored on the invoice.
type PaymentEvent struct {
	Provider         string
	ProviderEventID  string
	Type             string
	ProviderRef      string
	InvoiceReference string
	CustomerCode     string
	Amount           int64
	Currency         string
	FailureReason    string
	OccurredAt       time.Time
	RawPayload       []byte
	Subscription     *subscriptiondomain.ProviderUpdate
}
