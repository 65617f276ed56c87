package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertProperty(ctx context.Context, db *gorm.DB, property *Property) error
	FindPropertyByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Property, error)
	ListProperties(ctx context.Context, db *gorm.DB, landlordID snowflake.ID) ([]Property, error)

	InsertUnit(ctx context.Context, db *gorm.DB, unit *Unit) error
	FindUnitByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Unit, error)
	ListUnits(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, propertyID snowflake.ID) ([]Unit, error)

	InsertTenant(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	FindTenantByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Tenant, error)
	ListTenants(ctx context.Context, db *gorm.DB, landlordID snowflake.ID) ([]Tenant, error)
}
