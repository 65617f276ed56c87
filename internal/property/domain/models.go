// Package domain contains persistence models for the property portfolio.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Property is a building or complex owned by a landlord. The slug is unique
// per landlord and derived from the name at creation time.
type Property struct {
	ID          snowflake.ID `gorm:"primaryKey"`
	LandlordID  snowflake.ID `gorm:"not null;index;uniqueIndex:ux_properties_landlord_slug"`
	Name        string       `gorm:"type:text;not null"`
	Slug        string       `gorm:"type:text;not null;uniqueIndex:ux_properties_landlord_slug"`
	AddressLine string       `gorm:"type:text"`
	City        string       `gorm:"type:text"`
	Country     string       `gorm:"type:text"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Property) TableName() string { return "properties" }

// Unit is a rentable space within a property. CurrentLeaseID points at the
// lease occupying it, or is NULL when vacant.
type Unit struct {
	ID             snowflake.ID  `gorm:"primaryKey"`
	LandlordID     snowflake.ID  `gorm:"not null;index"`
	PropertyID     snowflake.ID  `gorm:"not null;index"`
	Label          string        `gorm:"type:text;not null"`
	Bedrooms       int16         `gorm:""`
	CurrentLeaseID *snowflake.ID `gorm:"index"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Unit) TableName() string { return "units" }

// Tenant is a person who can be attached to leases.
type Tenant struct {
	ID         snowflake.ID `gorm:"primaryKey"`
	LandlordID snowflake.ID `gorm:"not null;index"`
	FirstName  string       `gorm:"type:text;not null"`
	LastName   string       `gorm:"type:text"`
	Email      string       `gorm:"type:text"`
	Phone      string       `gorm:"type:text"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
