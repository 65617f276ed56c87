package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	pkgdb "github.com/rentfold/rentfold/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() leasedomain.Repository {
	return &repo{}
}

const leaseColumns = `id, landlord_id, unit_id, lease_type, status, rent_amount, deposit_amount,
	 currency, start_at, end_at, terminated_at, auto_invoice, invoice_day, metadata,
	 created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lease *leasedomain.Lease) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO leases (
			id, landlord_id, unit_id, lease_type, status, rent_amount, deposit_amount,
			currency, start_at, end_at, terminated_at, auto_invoice, invoice_day, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lease.ID,
		lease.LandlordID,
		lease.UnitID,
		lease.LeaseType,
		lease.Status,
		lease.RentAmount,
		lease.DepositAmount,
		lease.Currency,
		lease.StartAt,
		lease.EndAt,
		lease.TerminatedAt,
		lease.AutoInvoice,
		lease.InvoiceDay,
		lease.Metadata,
		lease.CreatedAt,
		lease.UpdatedAt,
	).Error
}

func (r *repo) InsertTenants(ctx context.Context, db *gorm.DB, links []leasedomain.LeaseTenant) error {
	if len(links) == 0 {
		return nil
	}

	for _, link := range links {
		if err := db.WithContext(ctx).Exec(
			`INSERT INTO lease_tenants (lease_id, tenant_id) VALUES (?, ?)`,
			link.LeaseID,
			link.TenantID,
		).Error; err != nil {
			return err
		}
	}

	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*leasedomain.Lease, error) {
	var lease leasedomain.Lease
	err := db.WithContext(ctx).Raw(
		`SELECT `+leaseColumns+`
		 FROM leases WHERE landlord_id = ? AND id = ?`,
		landlordID,
		id,
	).Scan(&lease).Error
	if err != nil {
		return nil, err
	}
	if lease.ID == 0 {
		return nil, nil
	}
	return &lease, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*leasedomain.Lease, error) {
	var lease leasedomain.Lease
	err := db.WithContext(ctx).Raw(
		`SELECT `+leaseColumns+`
		 FROM leases WHERE landlord_id = ? AND id = ?`+pkgdb.LockForUpdate(db),
		landlordID,
		id,
	).Scan(&lease).Error
	if err != nil {
		return nil, err
	}
	if lease.ID == 0 {
		return nil, nil
	}
	return &lease, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, filter leasedomain.ListFilter) ([]leasedomain.Lease, error) {
	query := `SELECT ` + leaseColumns + ` FROM leases WHERE landlord_id = ?`
	args := []any{landlordID}

	if filter.UnitID != 0 {
		query += ` AND unit_id = ?`
		args = append(args, filter.UnitID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY created_at ASC`

	var leases []leasedomain.Lease
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&leases).Error; err != nil {
		return nil, err
	}
	return leases, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status leasedomain.LeaseStatus, terminatedAt *time.Time, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE leases
		 SET status = ?,
		     terminated_at = COALESCE(terminated_at, ?),
		     updated_at = ?
		 WHERE id = ?`,
		status,
		terminatedAt,
		now,
		id,
	).Error
}

func (r *repo) TenantIDs(ctx context.Context, db *gorm.DB, leaseID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT tenant_id FROM lease_tenants WHERE lease_id = ?`,
		leaseID,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
