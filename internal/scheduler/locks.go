package scheduler

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	obsmetrics "github.com/rentfold/rentfold/internal/observability/metrics"
	"gorm.io/gorm"
)

// WorkLease is the slim lease row claimed for a sweep.
type WorkLease struct {
	ID          snowflake.ID
	LandlordID  snowflake.ID
	UnitID      snowflake.ID
	LeaseType   leasedomain.LeaseType
	Status      leasedomain.LeaseStatus
	RentAmount  int64
	Currency    string
	StartAt     time.Time
	EndAt       *time.Time
	AutoInvoice bool
	InvoiceDay  int16
}

// WorkInvoice is the slim invoice row claimed by the overdue sweep.
type WorkInvoice struct {
	ID         snowflake.ID
	LandlordID snowflake.ID
	LeaseID    *snowflake.ID
	Status     invoicedomain.InvoiceStatus
	AmountDue  int64
	Currency   string
	DueAt      time.Time
}

// lockSuffix returns the row-claim clause. sqlite has no row locks; its
// single-writer model makes the claim unnecessary there.
func (s *Scheduler) lockSuffix() string {
	if s.db.Dialector.Name() == "sqlite" {
		return ""
	}
	return " FOR UPDATE SKIP LOCKED"
}

func (s *Scheduler) fetchLeasesForWork(ctx context.Context, tx *gorm.DB, statuses []leasedomain.LeaseStatus, limit int) ([]WorkLease, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	var leases []WorkLease
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	err := tx.WithContext(ctx).Raw(
		`SELECT id, landlord_id, unit_id, lease_type, status, rent_amount, currency,
		        start_at, end_at, auto_invoice, invoice_day
		 FROM leases
		 WHERE status IN ?
		 ORDER BY id
		 LIMIT ?`+s.lockSuffix(),
		statuses,
		limit,
	).Scan(&leases).Error
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceLeasesForWork, time.Since(lockStart))
	if err != nil {
		return nil, err
	}
	return leases, nil
}

func (s *Scheduler) fetchOverdueInvoicesForWork(ctx context.Context, tx *gorm.DB, asOf time.Time, limit int) ([]WorkInvoice, error) {
	if limit <= 0 {
		limit = s.cfg.BatchSize
	}
	var invoices []WorkInvoice
	schedMetrics := obsmetrics.Scheduler()
	lockStart := time.Now()
	err := tx.WithContext(ctx).Raw(
		`SELECT id, landlord_id, lease_id, status, amount_due, currency, due_at
		 FROM invoices
		 WHERE status = ? AND due_at < ?
		 ORDER BY due_at ASC, id ASC
		 LIMIT ?`+s.lockSuffix(),
		invoicedomain.InvoiceStatusPending,
		asOf,
		limit,
	).Scan(&invoices).Error
	schedMetrics.ObserveDBLockWait(obsmetrics.LockResourceInvoicesForWork, time.Since(lockStart))
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// lastGeneratedPeriod returns the most recent generated period for a lease,
// or nil when no generated invoice exists yet.
func (s *Scheduler) lastGeneratedPeriod(ctx context.Context, tx *gorm.DB, leaseID snowflake.ID) (*time.Time, error) {
	var row struct {
		PeriodStart *time.Time
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT MAX(period_start) AS period_start FROM invoices WHERE lease_id = ? AND period_start IS NOT NULL`,
		leaseID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return row.PeriodStart, nil
}
