package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/landlordctx"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	leaserepo "github.com/rentfold/rentfold/internal/lease/repository"
	leaseservice "github.com/rentfold/rentfold/internal/lease/service"
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
		`CREATE TABLE units (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			property_id BIGINT NOT NULL,
			label TEXT NOT NULL,
			bedrooms SMALLINT NOT NULL DEFAULT 0,
			current_lease_id BIGINT,
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
		`CREATE TABLE lease_tenants (
			lease_id BIGINT NOT NULL,
			tenant_id BIGINT NOT NULL,
			PRIMARY KEY (lease_id, tenant_id)
		)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type fixture struct {
	db         *gorm.DB
	svc        leasedomain.Service
	node       *snowflake.Node
	clock      *clock.FakeClock
	ctx        context.Context
	landlordID snowflake.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(23)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	svc := leaseservice.NewService(leaseservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  leaserepo.Provide(),
		BCfg:  config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
	})

	landlordID := node.Generate()
	ctx := landlordctx.WithLandlordID(context.Background(), landlordID)
	return &fixture{db: db, svc: svc, node: node, clock: fake, ctx: ctx, landlordID: landlordID}
}

func (f *fixture) createUnit(t *testing.T) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO units (id, landlord_id, property_id, label, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, f.landlordID, f.node.Generate(), "Unit 4B", now, now,
	).Error)
	return id
}

func (f *fixture) createLease(t *testing.T, unitID snowflake.ID) leasedomain.LeaseView {
	t.Helper()
	view, err := f.svc.Create(f.ctx, leasedomain.CreateLeaseRequest{
		UnitID:     unitID.String(),
		TenantIDs:  []string{f.node.Generate().String()},
		LeaseType:  leasedomain.LeaseTypeMonthly,
		RentAmount: 120000,
		Currency:   "ZAR",
		StartAt:    f.clock.Now().AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	return view
}

func TestCreateClaimsUnit(t *testing.T) {
	f := setup(t)
	unitID := f.createUnit(t)

	lease := f.createLease(t, unitID)
	assert.Equal(t, leasedomain.LeaseStatusActive, lease.EffectiveStatus)

	var current sql.NullInt64
	require.NoError(t, f.db.Raw(
		`SELECT current_lease_id FROM units WHERE id = ?`, unitID,
	).Scan(&current).Error)
	require.True(t, current.Valid)
	assert.EqualValues(t, lease.ID, current.Int64)

	_, err := f.svc.Create(f.ctx, leasedomain.CreateLeaseRequest{
		UnitID:     unitID.String(),
		LeaseType:  leasedomain.LeaseTypeMonthly,
		RentAmount: 90000,
		Currency:   "ZAR",
		StartAt:    f.clock.Now(),
	})
	assert.ErrorIs(t, err, leasedomain.ErrUnitOccupied)
}

func TestCreateRejectsUnknownUnit(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(f.ctx, leasedomain.CreateLeaseRequest{
		UnitID:     f.node.Generate().String(),
		LeaseType:  leasedomain.LeaseTypeMonthly,
		RentAmount: 90000,
		Currency:   "ZAR",
		StartAt:    f.clock.Now(),
	})
	assert.ErrorIs(t, err, leasedomain.ErrUnitNotFound)
}

func TestTerminateReleasesUnit(t *testing.T) {
	f := setup(t)
	unitID := f.createUnit(t)
	lease := f.createLease(t, unitID)

	terminated, err := f.svc.Terminate(f.ctx, lease.ID.String())
	require.NoError(t, err)
	assert.Equal(t, leasedomain.LeaseStatusTerminated, terminated.EffectiveStatus)
	require.NotNil(t, terminated.TerminatedAt)

	var current sql.NullInt64
	require.NoError(t, f.db.Raw(
		`SELECT current_lease_id FROM units WHERE id = ?`, unitID,
	).Scan(&current).Error)
	assert.False(t, current.Valid)

	_, err = f.svc.Terminate(f.ctx, lease.ID.String())
	assert.ErrorIs(t, err, leasedomain.ErrLeaseTerminated)
}

func TestCreateValidatesFixedTermDates(t *testing.T) {
	f := setup(t)
	unitID := f.createUnit(t)
	start := f.clock.Now()
	before := start.AddDate(0, -1, 0)

	_, err := f.svc.Create(f.ctx, leasedomain.CreateLeaseRequest{
		UnitID:     unitID.String(),
		LeaseType:  leasedomain.LeaseTypeFixedTerm,
		RentAmount: 120000,
		Currency:   "ZAR",
		StartAt:    start,
	})
	assert.ErrorIs(t, err, leasedomain.ErrMissingEndDate)

	_, err = f.svc.Create(f.ctx, leasedomain.CreateLeaseRequest{
		UnitID:     unitID.String(),
		LeaseType:  leasedomain.LeaseTypeFixedTerm,
		RentAmount: 120000,
		Currency:   "ZAR",
		StartAt:    start,
		EndAt:      &before,
	})
	assert.ErrorIs(t, err, leasedomain.ErrInvalidEndDate)
}
