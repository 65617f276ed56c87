// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// InvoiceCategory classifies what an invoice bills for.
type InvoiceCategory string

const (
	CategoryRent             InvoiceCategory = "RENT"
	CategoryDeposit          InvoiceCategory = "DEPOSIT"
	CategoryMaintenance      InvoiceCategory = "MAINTENANCE"
	CategoryUtilityBill      InvoiceCategory = "UTILITY_BILL"
	CategoryLevy             InvoiceCategory = "LEVY"
	CategoryRatesAndTaxes    InvoiceCategory = "RATES_AND_TAXES"
	CategoryServiceCharge    InvoiceCategory = "SERVICE_CHARGE"
	CategoryWaterElectricity InvoiceCategory = "WATER_ELECTRICITY"
	CategoryOther            InvoiceCategory = "OTHER"
)

// ValidCategory reports whether the category is one of the known values.
func ValidCategory(c InvoiceCategory) bool {
	switch c {
	case CategoryRent, CategoryDeposit, CategoryMaintenance, CategoryUtilityBill,
		CategoryLevy, CategoryRatesAndTaxes, CategoryServiceCharge,
		CategoryWaterElectricity, CategoryOther:
		return true
	default:
		return false
	}
}

// Invoice represents a billing request, optionally tied to a lease.
// PeriodStart is set for generated rent invoices and, together with LeaseID,
// forms the idempotency key ux_invoices_lease_period.
type Invoice struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	LandlordID        snowflake.ID      `gorm:"not null;index"`
	LeaseID           *snowflake.ID     `gorm:"index;uniqueIndex:ux_invoices_lease_period"`
	Category          InvoiceCategory   `gorm:"type:text;not null;default:'RENT'"`
	Status            InvoiceStatus     `gorm:"type:text;not null;default:'PENDING'"`
	AmountDue         int64             `gorm:"not null"`
	Currency          string            `gorm:"type:text;not null"`
	Description       string            `gorm:"type:text"`
	DueAt             time.Time         `gorm:"not null"`
	PaidAt            *time.Time        `gorm:""`
	PeriodStart       *time.Time        `gorm:"uniqueIndex:ux_invoices_lease_period"`
	ProviderReference *string           `gorm:"type:text"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Transaction is a confirmed payment against an invoice. Immutable once created.
type Transaction struct {
	ID                snowflake.ID  `gorm:"primaryKey"`
	LandlordID        snowflake.ID  `gorm:"not null;index"`
	InvoiceID         snowflake.ID  `gorm:"not null;index"`
	LeaseID           *snowflake.ID `gorm:"index"`
	AmountPaid        int64         `gorm:"not null"`
	Currency          string        `gorm:"type:text;not null"`
	Description       string        `gorm:"type:text"`
	ProviderReference string        `gorm:"type:text;not null;uniqueIndex:ux_transactions_provider_reference"`
	PaidAt            time.Time     `gorm:"not null"`
	CreatedAt         time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }
