package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/landlordctx"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	pkgdb "github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  leasedomain.Repository
	bcfg  *config.BillingConfigHolder
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  leasedomain.Repository
	BCfg  *config.BillingConfigHolder
}

func NewService(p ServiceParam) leasedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("lease.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		bcfg:  p.BCfg,
	}
}

func (s *Service) Create(ctx context.Context, req leasedomain.CreateLeaseRequest) (leasedomain.LeaseView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidLandlord
	}

	unitID, err := s.parseID(req.UnitID, leasedomain.ErrInvalidUnit)
	if err != nil {
		return leasedomain.LeaseView{}, err
	}

	if req.LeaseType != leasedomain.LeaseTypeFixedTerm && req.LeaseType != leasedomain.LeaseTypeMonthly {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidLeaseType
	}
	if req.RentAmount <= 0 {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidRentAmount
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidCurrency
	}
	if req.StartAt.IsZero() {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidStartAt
	}
	// A fixed-term lease must carry an end date after its start.
	if req.LeaseType == leasedomain.LeaseTypeFixedTerm {
		if req.EndAt == nil {
			return leasedomain.LeaseView{}, leasedomain.ErrMissingEndDate
		}
		if !req.EndAt.After(req.StartAt) {
			return leasedomain.LeaseView{}, leasedomain.ErrInvalidEndDate
		}
	}
	if req.InvoiceDay != 0 && (req.InvoiceDay < 1 || req.InvoiceDay > 28) {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidInvoiceDay
	}

	tenantIDs := make([]snowflake.ID, 0, len(req.TenantIDs))
	for _, raw := range req.TenantIDs {
		id, err := s.parseID(raw, leasedomain.ErrInvalidTenant)
		if err != nil {
			return leasedomain.LeaseView{}, err
		}
		tenantIDs = append(tenantIDs, id)
	}

	now := s.clock.Now()
	autoInvoice := true
	if req.AutoInvoice != nil {
		autoInvoice = *req.AutoInvoice
	}
	invoiceDay := req.InvoiceDay
	if invoiceDay == 0 {
		invoiceDay = int16(s.bcfg.Current().DefaultInvoiceDay)
	}

	lease := leasedomain.Lease{
		ID:            s.genID.Generate(),
		LandlordID:    landlordID,
		UnitID:        unitID,
		LeaseType:     req.LeaseType,
		RentAmount:    req.RentAmount,
		DepositAmount: req.DepositAmount,
		Currency:      strings.ToUpper(strings.TrimSpace(req.Currency)),
		StartAt:       req.StartAt.UTC(),
		EndAt:         req.EndAt,
		AutoInvoice:   autoInvoice,
		InvoiceDay:    invoiceDay,
		Metadata:      datatypes.JSONMap{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	lease.Status = leasedomain.ResolveStatus(lease, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.lockUnit(ctx, tx, landlordID, unitID)
		if err != nil {
			return err
		}
		if current != nil && *current != 0 {
			return leasedomain.ErrUnitOccupied
		}

		if err := s.repo.Insert(ctx, tx, &lease); err != nil {
			return err
		}

		links := make([]leasedomain.LeaseTenant, 0, len(tenantIDs))
		for _, tid := range tenantIDs {
			links = append(links, leasedomain.LeaseTenant{LeaseID: lease.ID, TenantID: tid})
		}
		if err := s.repo.InsertTenants(ctx, tx, links); err != nil {
			return err
		}

		return s.setCurrentLease(ctx, tx, unitID, &lease.ID, now)
	})
	if err != nil {
		return leasedomain.LeaseView{}, err
	}

	s.log.Info("lease created",
		zap.String("lease_id", lease.ID.String()),
		zap.String("unit_id", unitID.String()),
		zap.String("lease_type", string(lease.LeaseType)),
	)
	return s.view(lease, now), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (leasedomain.LeaseView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidLandlord
	}

	leaseID, err := s.parseID(id, leasedomain.ErrInvalidLease)
	if err != nil {
		return leasedomain.LeaseView{}, err
	}

	lease, err := s.repo.FindByID(ctx, s.db, landlordID, leaseID)
	if err != nil {
		return leasedomain.LeaseView{}, err
	}
	if lease == nil {
		return leasedomain.LeaseView{}, leasedomain.ErrLeaseNotFound
	}

	return s.view(*lease, s.clock.Now()), nil
}

func (s *Service) List(ctx context.Context, req leasedomain.ListLeaseRequest) ([]leasedomain.LeaseView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return nil, leasedomain.ErrInvalidLandlord
	}

	filter := leasedomain.ListFilter{}
	if unitID := strings.TrimSpace(req.UnitID); unitID != "" {
		parsed, err := s.parseID(unitID, leasedomain.ErrInvalidUnit)
		if err != nil {
			return nil, err
		}
		filter.UnitID = parsed
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = leasedomain.LeaseStatus(strings.ToUpper(status))
	}

	leases, err := s.repo.List(ctx, s.db, landlordID, filter)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	views := make([]leasedomain.LeaseView, 0, len(leases))
	for _, lease := range leases {
		views = append(views, s.view(lease, now))
	}
	return views, nil
}

func (s *Service) Terminate(ctx context.Context, id string) (leasedomain.LeaseView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return leasedomain.LeaseView{}, leasedomain.ErrInvalidLandlord
	}

	leaseID, err := s.parseID(id, leasedomain.ErrInvalidLease)
	if err != nil {
		return leasedomain.LeaseView{}, err
	}

	now := s.clock.Now()
	var terminated leasedomain.Lease

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lease, err := s.repo.FindByIDForUpdate(ctx, tx, landlordID, leaseID)
		if err != nil {
			return err
		}
		if lease == nil {
			return leasedomain.ErrLeaseNotFound
		}
		if lease.Status == leasedomain.LeaseStatusTerminated {
			return leasedomain.ErrLeaseTerminated
		}

		if err := s.repo.UpdateStatus(ctx, tx, lease.ID, leasedomain.LeaseStatusTerminated, &now, now); err != nil {
			return err
		}

		// Release the unit so a new lease can take over.
		if err := s.clearCurrentLease(ctx, tx, lease.UnitID, lease.ID, now); err != nil {
			return err
		}

		lease.Status = leasedomain.LeaseStatusTerminated
		lease.TerminatedAt = &now
		lease.UpdatedAt = now
		terminated = *lease
		return nil
	})
	if err != nil {
		return leasedomain.LeaseView{}, err
	}

	s.log.Info("lease terminated", zap.String("lease_id", terminated.ID.String()))
	return s.view(terminated, now), nil
}

func (s *Service) view(lease leasedomain.Lease, now time.Time) leasedomain.LeaseView {
	window := s.bcfg.Current().ExpiringSoonDays
	return leasedomain.LeaseView{
		Lease:           lease,
		EffectiveStatus: leasedomain.ResolveStatus(lease, now),
		ExpiringSoon:    leasedomain.ExpiringSoon(lease, now, window),
	}
}

func (s *Service) lockUnit(ctx context.Context, tx *gorm.DB, landlordID, unitID snowflake.ID) (*snowflake.ID, error) {
	var row struct {
		ID             snowflake.ID
		CurrentLeaseID *snowflake.ID
	}
	err := tx.WithContext(ctx).Raw(
		`SELECT id, current_lease_id FROM units WHERE landlord_id = ? AND id = ?`+pkgdb.LockForUpdate(tx),
		landlordID,
		unitID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, leasedomain.ErrUnitNotFound
	}
	if row.CurrentLeaseID == nil {
		zero := snowflake.ID(0)
		return &zero, nil
	}
	return row.CurrentLeaseID, nil
}

func (s *Service) setCurrentLease(ctx context.Context, tx *gorm.DB, unitID snowflake.ID, leaseID *snowflake.ID, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE units SET current_lease_id = ?, updated_at = ? WHERE id = ?`,
		leaseID,
		now,
		unitID,
	).Error
}

func (s *Service) clearCurrentLease(ctx context.Context, tx *gorm.DB, unitID, leaseID snowflake.ID, now time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE units SET current_lease_id = NULL, updated_at = ? WHERE id = ? AND current_lease_id = ?`,
		now,
		unitID,
		leaseID,
	).Error
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
