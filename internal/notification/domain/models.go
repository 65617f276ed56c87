// Package domain contains the notification outbox model.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Topics emitted by the system. Payloads carry event data only; template
// rendering happens outside this service.
const (
	TopicInvoiceBatchCreated = "invoice_batch_created"
	TopicInvoiceOverdue      = "invoice_overdue"
	TopicLeaseExpiringSoon   = "lease_expiring_soon"
	TopicPaymentReceived     = "payment_received"
	TopicTrialExpired        = "trial_expired"
)

// Notification is a persisted event destined for a landlord. DedupKey, when
// set, suppresses repeat emissions via ux_notifications_dedup.
type Notification struct {
	ID           snowflake.ID      `gorm:"primaryKey"`
	LandlordID   snowflake.ID      `gorm:"not null;index"`
	Topic        string            `gorm:"type:text;not null"`
	Payload      datatypes.JSONMap `gorm:"type:jsonb"`
	DedupKey     *string           `gorm:"type:text;uniqueIndex:ux_notifications_dedup"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	DispatchedAt *time.Time        `gorm:""`
}

// TableName sets the database table name.
func (Notification) TableName() string { return "notifications" }

type EmitRequest struct {
	LandlordID snowflake.ID
	Topic      string
	Payload    map[string]any
	// DedupKey suppresses the emission when a notification with the same
	// key already exists. Empty means always emit.
	DedupKey string
}

// Service persists and dispatches notifications. Emit runs against the
// caller's handle so it can join an open transaction; it reports false
// when the dedup key suppressed the emission.
type Service interface {
	Emit(ctx context.Context, tx *gorm.DB, req EmitRequest) (bool, error)
}
