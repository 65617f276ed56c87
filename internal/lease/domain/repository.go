package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lease *Lease) error
	InsertTenants(ctx context.Context, db *gorm.DB, links []LeaseTenant) error
	FindByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Lease, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Lease, error)
	List(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, filter ListFilter) ([]Lease, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status LeaseStatus, terminatedAt *time.Time, now time.Time) error
	TenantIDs(ctx context.Context, db *gorm.DB, leaseID snowflake.ID) ([]snowflake.ID, error)
}

type ListFilter struct {
	UnitID snowflake.ID
	Status LeaseStatus
}
