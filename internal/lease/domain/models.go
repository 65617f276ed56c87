// Package domain contains persistence models for leases.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// LeaseStatus represents lease lifecycle states.
type LeaseStatus string

const (
	LeaseStatusPending    LeaseStatus = "PENDING"
	LeaseStatusActive     LeaseStatus = "ACTIVE"
	LeaseStatusExpired    LeaseStatus = "EXPIRED"
	LeaseStatusTerminated LeaseStatus = "TERMINATED"
)

// LeaseType distinguishes fixed-term from rolling monthly agreements.
type LeaseType string

const (
	LeaseTypeFixedTerm LeaseType = "FIXED_TERM"
	LeaseTypeMonthly   LeaseType = "MONTHLY"
)

// Lease captures an occupancy agreement between a landlord and tenants.
// The stored Status column is a cache refreshed by the scheduler sweep;
// reads go through ResolveStatus.
type Lease struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	LandlordID    snowflake.ID      `gorm:"not null;index"`
	UnitID        snowflake.ID      `gorm:"not null;index"`
	LeaseType     LeaseType         `gorm:"type:text;not null"`
	Status        LeaseStatus       `gorm:"type:text;not null;default:'PENDING'"`
	RentAmount    int64             `gorm:"not null"`
	DepositAmount int64             `gorm:"not null;default:0"`
	Currency      string            `gorm:"type:text;not null"`
	StartAt       time.Time         `gorm:"not null"`
	EndAt         *time.Time        `gorm:""`
	TerminatedAt  *time.Time        `gorm:""`
	AutoInvoice   bool              `gorm:"not null;default:true"`
	InvoiceDay    int16             `gorm:"type:smallint;not null;default:1"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Lease) TableName() string { return "leases" }

// LeaseTenant joins leases to tenants.
type LeaseTenant struct {
	LeaseID  snowflake.ID `gorm:"primaryKey"`
	TenantID snowflake.ID `gorm:"primaryKey"`
}

// TableName sets the database table name.
func (LeaseTenant) TableName() string { return "lease_tenants" }
