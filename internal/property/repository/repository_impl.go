package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	propertydomain "github.com/rentfold/rentfold/internal/property/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() propertydomain.Repository {
	return &repo{}
}

const propertyColumns = `id, landlord_id, name, slug, address_line, city, country, created_at, updated_at`

const unitColumns = `id, landlord_id, property_id, label, bedrooms, current_lease_id, created_at, updated_at`

const tenantColumns = `id, landlord_id, first_name, last_name, email, phone, created_at, updated_at`

func (r *repo) InsertProperty(ctx context.Context, db *gorm.DB, property *propertydomain.Property) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO properties (
			id, landlord_id, name, slug, address_line, city, country, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		property.ID,
		property.LandlordID,
		property.Name,
		property.Slug,
		property.AddressLine,
		property.City,
		property.Country,
		property.CreatedAt,
		property.UpdatedAt,
	).Error
}

func (r *repo) FindPropertyByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*propertydomain.Property, error) {
	var property propertydomain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT `+propertyColumns+`
		 FROM properties WHERE landlord_id = ? AND id = ?`,
		landlordID,
		id,
	).Scan(&property).Error
	if err != nil {
		return nil, err
	}
	if property.ID == 0 {
		return nil, nil
	}
	return &property, nil
}

func (r *repo) ListProperties(ctx context.Context, db *gorm.DB, landlordID snowflake.ID) ([]propertydomain.Property, error) {
	var properties []propertydomain.Property
	err := db.WithContext(ctx).Raw(
		`SELECT `+propertyColumns+`
		 FROM properties WHERE landlord_id = ? ORDER BY name ASC`,
		landlordID,
	).Scan(&properties).Error
	if err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *repo) InsertUnit(ctx context.Context, db *gorm.DB, unit *propertydomain.Unit) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO units (
			id, landlord_id, property_id, label, bedrooms, current_lease_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		unit.ID,
		unit.LandlordID,
		unit.PropertyID,
		unit.Label,
		unit.Bedrooms,
		unit.CurrentLeaseID,
		unit.CreatedAt,
		unit.UpdatedAt,
	).Error
}

func (r *repo) FindUnitByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*propertydomain.Unit, error) {
	var unit propertydomain.Unit
	err := db.WithContext(ctx).Raw(
		`SELECT `+unitColumns+`
		 FROM units WHERE landlord_id = ? AND id = ?`,
		landlordID,
		id,
	).Scan(&unit).Error
	if err != nil {
		return nil, err
	}
	if unit.ID == 0 {
		return nil, nil
	}
	return &unit, nil
}

func (r *repo) ListUnits(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, propertyID snowflake.ID) ([]propertydomain.Unit, error) {
	query := `SELECT ` + unitColumns + ` FROM units WHERE landlord_id = ?`
	args := []any{landlordID}
	if propertyID != 0 {
		query += ` AND property_id = ?`
		args = append(args, propertyID)
	}
	query += ` ORDER BY label ASC`

	var units []propertydomain.Unit
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&units).Error; err != nil {
		return nil, err
	}
	return units, nil
}

func (r *repo) InsertTenant(ctx context.Context, db *gorm.DB, tenant *propertydomain.Tenant) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tenants (
			id, landlord_id, first_name, last_name, email, phone, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant.ID,
		tenant.LandlordID,
		tenant.FirstName,
		tenant.LastName,
		tenant.Email,
		tenant.Phone,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	).Error
}

func (r *repo) FindTenantByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*propertydomain.Tenant, error) {
	var tenant propertydomain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT `+tenantColumns+`
		 FROM tenants WHERE landlord_id = ? AND id = ?`,
		landlordID,
		id,
	).Scan(&tenant).Error
	if err != nil {
		return nil, err
	}
	if tenant.ID == 0 {
		return nil, nil
	}
	return &tenant, nil
}

func (r *repo) ListTenants(ctx context.Context, db *gorm.DB, landlordID snowflake.ID) ([]propertydomain.Tenant, error) {
	var tenants []propertydomain.Tenant
	err := db.WithContext(ctx).Raw(
		`SELECT `+tenantColumns+`
		 FROM tenants WHERE landlord_id = ? ORDER BY first_name ASC, last_name ASC`,
		landlordID,
	).Scan(&tenants).Error
	if err != nil {
		return nil, err
	}
	return tenants, nil
}
