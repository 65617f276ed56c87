package scheduler

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	invoicerepo "github.com/rentfold/rentfold/internal/invoice/repository"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	leaserepo "github.com/rentfold/rentfold/internal/lease/repository"
	notificationservice "github.com/rentfold/rentfold/internal/notification/service"
	subscriptionrepo "github.com/rentfold/rentfold/internal/subscription/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE landlords (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			paystack_customer_code TEXT,
			paystack_subscription_code TEXT,
			provider_status TEXT,
			plan_code TEXT,
			amount BIGINT,
			currency TEXT,
			plan_interval TEXT,
			next_payment_at DATETIME,
			last_payment_error TEXT,
			payment_retry_count INT NOT NULL DEFAULT 0,
			trial_started_at DATETIME,
			trial_expires_at DATETIME,
			subscription_synced_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE leases (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			unit_id BIGINT NOT NULL,
			lease_type TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'PENDING',
			rent_amount BIGINT NOT NULL,
			deposit_amount BIGINT NOT NULL DEFAULT 0,
			currency TEXT NOT NULL,
			start_at DATETIME NOT NULL,
			end_at DATETIME,
			terminated_at DATETIME,
			auto_invoice BOOLEAN NOT NULL DEFAULT TRUE,
			invoice_day SMALLINT NOT NULL DEFAULT 1,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE invoices (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			lease_id BIGINT,
			category TEXT NOT NULL DEFAULT 'RENT',
			status TEXT NOT NULL DEFAULT 'PENDING',
			amount_due BIGINT NOT NULL,
			currency TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			due_at DATETIME NOT NULL,
			paid_at DATETIME,
			period_start DATETIME,
			provider_reference TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_invoices_lease_period ON invoices(lease_id, period_start)
		 WHERE lease_id IS NOT NULL AND period_start IS NOT NULL`,
		`CREATE TABLE notifications (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			topic TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedup_key TEXT,
			created_at DATETIME NOT NULL,
			dispatched_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_notifications_dedup ON notifications(dedup_key) WHERE dedup_key IS NOT NULL`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type fixture struct {
	db    *gorm.DB
	sched *Scheduler
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(31)
	require.NoError(t, err)
	fake := clock.NewFakeClock(now)

	sched, err := New(Params{
		DB:        db,
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     fake,
		BCfg:      config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		Leases:    leaserepo.Provide(),
		Invoices:  invoicerepo.Provide(),
		Landlords: subscriptionrepo.Provide(),
		Notifications: notificationservice.NewService(notificationservice.ServiceParam{
			Log:   zap.NewNop(),
			GenID: node,
			Clock: fake,
		}),
	})
	require.NoError(t, err)

	return &fixture{db: db, sched: sched, node: node, clock: fake}
}

func (f *fixture) seedLandlord(t *testing.T) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO landlords (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, fmt.Sprintf("l%s@example.com", id), now, now,
	).Error)
	return id
}

func (f *fixture) seedLease(t *testing.T, landlordID snowflake.ID, startAt time.Time, invoiceDay int16) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO leases (id, landlord_id, unit_id, lease_type, status, rent_amount, currency,
			start_at, auto_invoice, invoice_day, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, 'MONTHLY', 'ACTIVE', 120000, 'ZAR', ?, TRUE, ?, '{}', ?, ?)`,
		id, landlordID, f.node.Generate(), startAt, invoiceDay, now, now,
	).Error)
	return id
}

func (f *fixture) invoiceCount(t *testing.T, leaseID snowflake.ID) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM invoices WHERE lease_id = ?`, leaseID).Scan(&count).Error)
	return count
}

func TestGenerateInvoicesIsIdempotent(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	leaseID := f.seedLease(t, landlordID, time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC), 1)

	summary, err := f.sched.GenerateInvoicesJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.Zero(t, summary.Failed)

	// Lease started Jan 20 with day-1 anchor: Feb 1 and Mar 1 are owed.
	first := f.invoiceCount(t, leaseID)
	assert.Equal(t, int64(2), first)

	// A second run in the same instant creates nothing new.
	_, err = f.sched.GenerateInvoicesJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, f.invoiceCount(t, leaseID))
}

func TestGenerateInvoicesAdvancesWithClock(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	leaseID := f.seedLease(t, landlordID, time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC), 1)

	_, err := f.sched.GenerateInvoicesJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.invoiceCount(t, leaseID))

	// A month later the next period becomes due.
	f.clock.Advance(31 * 24 * time.Hour)
	_, err = f.sched.GenerateInvoicesJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.invoiceCount(t, leaseID))
}

func TestGenerateInvoicesEmitsOneDigestPerRun(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	f.seedLease(t, landlordID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	f.seedLease(t, landlordID, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 1)

	_, err := f.sched.GenerateInvoicesJob(ctx)
	require.NoError(t, err)

	var digests int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM notifications WHERE landlord_id = ? AND topic = 'invoice_batch_created'`,
		landlordID,
	).Scan(&digests).Error)
	assert.Equal(t, int64(1), digests)
}

func TestMarkOverdueTransitionsAndDedupes(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	invoiceID := f.node.Generate()
	require.NoError(t, f.db.Exec(
		`INSERT INTO invoices (id, landlord_id, status, amount_due, currency, due_at, metadata, created_at, updated_at)
		 VALUES (?, ?, 'PENDING', 5000, 'ZAR', ?, '{}', ?, ?)`,
		invoiceID, landlordID, now.Add(-24*time.Hour), now, now,
	).Error)

	summary, err := f.sched.MarkOverdueJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	var status invoicedomain.InvoiceStatus
	require.NoError(t, f.db.Raw(`SELECT status FROM invoices WHERE id = ?`, invoiceID).Scan(&status).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusOverdue, status)

	// Second run: nothing pending, no duplicate notification.
	summary, err = f.sched.MarkOverdueJob(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)

	var notified int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM notifications WHERE topic = 'invoice_overdue'`,
	).Scan(&notified).Error)
	assert.Equal(t, int64(1), notified)
}

func TestLeaseStatusSweepExpiresFixedTerm(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	leaseID := f.node.Generate()
	require.NoError(t, f.db.Exec(
		`INSERT INTO leases (id, landlord_id, unit_id, lease_type, status, rent_amount, currency,
			start_at, end_at, auto_invoice, invoice_day, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, 'FIXED_TERM', 'ACTIVE', 100000, 'ZAR', ?, ?, FALSE, 1, '{}', ?, ?)`,
		leaseID, landlordID, f.node.Generate(),
		now.AddDate(-1, 0, 0), now.Add(-24*time.Hour), now, now,
	).Error)

	summary, err := f.sched.LeaseStatusSweepJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	var status leasedomain.LeaseStatus
	require.NoError(t, f.db.Raw(`SELECT status FROM leases WHERE id = ?`, leaseID).Scan(&status).Error)
	assert.Equal(t, leasedomain.LeaseStatusExpired, status)
}

func TestTrialSweepEmitsOncePerLandlord(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)
	ctx := context.Background()

	landlordID := f.seedLandlord(t)
	require.NoError(t, f.db.Exec(
		`UPDATE landlords SET trial_started_at = ?, trial_expires_at = ? WHERE id = ?`,
		now.AddDate(0, 0, -20), now.AddDate(0, 0, -6), landlordID,
	).Error)

	summary, err := f.sched.TrialSweepJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	summary, err = f.sched.TrialSweepJob(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
}

func TestMissedPeriods(t *testing.T) {
	lease := WorkLease{
		StartAt:    time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC),
		InvoiceDay: 1,
	}
	now := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	periods := missedPeriods(lease, nil, now, 12)
	require.Len(t, periods, 3)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), periods[0])
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), periods[2])

	// Resuming from the last generated period only yields the gap.
	last := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periods = missedPeriods(lease, &last, now, 12)
	require.Len(t, periods, 1)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), periods[0])

	// Lookback caps how far back a dormant lease is backfilled.
	periods = missedPeriods(lease, nil, now, 1)
	require.Len(t, periods, 2)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), periods[0])
}

func TestMissedPeriodsCoversMidDayStartOnAnchorDay(t *testing.T) {
	// A lease signed at noon on its own anchor day still owes the
	// period that starts that day.
	lease := WorkLease{
		StartAt:    time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC),
		InvoiceDay: 5,
	}

	now := time.Date(2026, 1, 5, 13, 0, 0, 0, time.UTC)
	periods := missedPeriods(lease, nil, now, 12)
	require.Len(t, periods, 1)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), periods[0])

	now = time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	periods = missedPeriods(lease, nil, now, 12)
	require.Len(t, periods, 3)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), periods[0])
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), periods[2])
}

func TestRunOnceWithoutLockerRunsAllJobs(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	f := setup(t, now)

	summaries, err := f.sched.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	jobs := make([]string, 0, len(summaries))
	for _, summary := range summaries {
		jobs = append(jobs, summary.Job)
	}
	assert.Equal(t, []string{"generate_invoices", "mark_overdue", "lease_status_sweep", "trial_sweep"}, jobs)
}
