// Package domain contains the landlord record and its subscription replica.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Landlord is the tenant of the system. Subscription state is replicated
// onto it from Paystack webhook events; ProviderStatus holds the raw
// provider string and is interpreted by Derive.
type Landlord struct {
	ID                       snowflake.ID `gorm:"primaryKey"`
	Email                    string       `gorm:"type:text;not null;unique"`
	Name                     string       `gorm:"type:text"`
	PaystackCustomerCode     *string      `gorm:"type:text"`
	PaystackSubscriptionCode *string      `gorm:"type:text"`
	ProviderStatus           *string      `gorm:"type:text"`
	PlanCode                 *string      `gorm:"type:text"`
	Amount                   *int64       `gorm:""`
	Currency                 *string      `gorm:"type:text"`
	PlanInterval             *string      `gorm:"type:text"`
	NextPaymentAt            *time.Time   `gorm:""`
	LastPaymentError         *string      `gorm:"type:text"`
	PaymentRetryCount        int          `gorm:"not null;default:0"`
	TrialStartedAt           *time.Time   `gorm:""`
	TrialExpiresAt           *time.Time   `gorm:""`
	SubscriptionSyncedAt     *time.Time   `gorm:""`
	CreatedAt                time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt                time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Landlord) TableName() string { return "landlords" }
