package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/landlordctx"
	propertydomain "github.com/rentfold/rentfold/internal/property/domain"
	"github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  propertydomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  propertydomain.Repository
}

func NewService(p ServiceParam) propertydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("property.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateProperty(ctx context.Context, req propertydomain.CreatePropertyRequest) (propertydomain.Property, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Property{}, propertydomain.ErrInvalidLandlord
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return propertydomain.Property{}, propertydomain.ErrInvalidName
	}

	now := s.clock.Now()
	property := propertydomain.Property{
		ID:          s.genID.Generate(),
		LandlordID:  landlordID,
		Name:        name,
		Slug:        slug.Make(name),
		AddressLine: strings.TrimSpace(req.AddressLine),
		City:        strings.TrimSpace(req.City),
		Country:     strings.TrimSpace(req.Country),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.InsertProperty(ctx, s.db, &property); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return propertydomain.Property{}, propertydomain.ErrDuplicateProperty
		}
		return propertydomain.Property{}, err
	}

	s.log.Info("property created",
		zap.String("property_id", property.ID.String()),
		zap.String("slug", property.Slug),
	)
	return property, nil
}

func (s *Service) GetProperty(ctx context.Context, id string) (propertydomain.Property, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Property{}, propertydomain.ErrInvalidLandlord
	}

	propertyID, err := s.parseID(id, propertydomain.ErrInvalidProperty)
	if err != nil {
		return propertydomain.Property{}, err
	}

	property, err := s.repo.FindPropertyByID(ctx, s.db, landlordID, propertyID)
	if err != nil {
		return propertydomain.Property{}, err
	}
	if property == nil {
		return propertydomain.Property{}, propertydomain.ErrPropertyNotFound
	}
	return *property, nil
}

func (s *Service) ListProperties(ctx context.Context) ([]propertydomain.Property, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return nil, propertydomain.ErrInvalidLandlord
	}
	return s.repo.ListProperties(ctx, s.db, landlordID)
}

func (s *Service) CreateUnit(ctx context.Context, req propertydomain.CreateUnitRequest) (propertydomain.Unit, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Unit{}, propertydomain.ErrInvalidLandlord
	}

	propertyID, err := s.parseID(req.PropertyID, propertydomain.ErrInvalidProperty)
	if err != nil {
		return propertydomain.Unit{}, err
	}
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return propertydomain.Unit{}, propertydomain.ErrInvalidLabel
	}

	property, err := s.repo.FindPropertyByID(ctx, s.db, landlordID, propertyID)
	if err != nil {
		return propertydomain.Unit{}, err
	}
	if property == nil {
		return propertydomain.Unit{}, propertydomain.ErrPropertyNotFound
	}

	now := s.clock.Now()
	unit := propertydomain.Unit{
		ID:         s.genID.Generate(),
		LandlordID: landlordID,
		PropertyID: propertyID,
		Label:      label,
		Bedrooms:   req.Bedrooms,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertUnit(ctx, s.db, &unit); err != nil {
		return propertydomain.Unit{}, err
	}

	s.log.Info("unit created",
		zap.String("unit_id", unit.ID.String()),
		zap.String("property_id", propertyID.String()),
	)
	return unit, nil
}

func (s *Service) GetUnit(ctx context.Context, id string) (propertydomain.Unit, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Unit{}, propertydomain.ErrInvalidLandlord
	}

	unitID, err := s.parseID(id, propertydomain.ErrInvalidUnit)
	if err != nil {
		return propertydomain.Unit{}, err
	}

	unit, err := s.repo.FindUnitByID(ctx, s.db, landlordID, unitID)
	if err != nil {
		return propertydomain.Unit{}, err
	}
	if unit == nil {
		return propertydomain.Unit{}, propertydomain.ErrUnitNotFound
	}
	return *unit, nil
}

func (s *Service) ListUnits(ctx context.Context, propertyID string) ([]propertydomain.Unit, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return nil, propertydomain.ErrInvalidLandlord
	}

	var filter snowflake.ID
	if strings.TrimSpace(propertyID) != "" {
		parsed, err := s.parseID(propertyID, propertydomain.ErrInvalidProperty)
		if err != nil {
			return nil, err
		}
		filter = parsed
	}
	return s.repo.ListUnits(ctx, s.db, landlordID, filter)
}

func (s *Service) CreateTenant(ctx context.Context, req propertydomain.CreateTenantRequest) (propertydomain.Tenant, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Tenant{}, propertydomain.ErrInvalidLandlord
	}

	firstName := strings.TrimSpace(req.FirstName)
	if firstName == "" {
		return propertydomain.Tenant{}, propertydomain.ErrInvalidName
	}

	now := s.clock.Now()
	tenant := propertydomain.Tenant{
		ID:         s.genID.Generate(),
		LandlordID: landlordID,
		FirstName:  firstName,
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertTenant(ctx, s.db, &tenant); err != nil {
		return propertydomain.Tenant{}, err
	}

	s.log.Info("tenant created", zap.String("tenant_id", tenant.ID.String()))
	return tenant, nil
}

func (s *Service) GetTenant(ctx context.Context, id string) (propertydomain.Tenant, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return propertydomain.Tenant{}, propertydomain.ErrInvalidLandlord
	}

	tenantID, err := s.parseID(id, propertydomain.ErrInvalidTenant)
	if err != nil {
		return propertydomain.Tenant{}, err
	}

	tenant, err := s.repo.FindTenantByID(ctx, s.db, landlordID, tenantID)
	if err != nil {
		return propertydomain.Tenant{}, err
	}
	if tenant == nil {
		return propertydomain.Tenant{}, propertydomain.ErrTenantNotFound
	}
	return *tenant, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]propertydomain.Tenant, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return nil, propertydomain.ErrInvalidLandlord
	}
	return s.repo.ListTenants(ctx, s.db, landlordID)
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
