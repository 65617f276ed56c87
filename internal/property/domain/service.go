package domain

import (
	"context"
	"errors"
)

type CreatePropertyRequest struct {
	Name        string `json:"name"`
	AddressLine string `json:"address_line,omitempty"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
}

type CreateUnitRequest struct {
	PropertyID string `json:"property_id"`
	Label      string `json:"label"`
	Bedrooms   int16  `json:"bedrooms,omitempty"`
}

type CreateTenantRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type Service interface {
	CreateProperty(ctx context.Context, req CreatePropertyRequest) (Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)
	ListProperties(ctx context.Context) ([]Property, error)

	CreateUnit(ctx context.Context, req CreateUnitRequest) (Unit, error)
	GetUnit(ctx context.Context, id string) (Unit, error)
	ListUnits(ctx context.Context, propertyID string) ([]Unit, error)

	CreateTenant(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	GetTenant(ctx context.Context, id string) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
}

var (
	ErrInvalidLandlord   = errors.New("invalid_landlord")
	ErrInvalidProperty   = errors.New("invalid_property")
	ErrInvalidUnit       = errors.New("invalid_unit")
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidLabel      = errors.New("invalid_label")
	ErrPropertyNotFound  = errors.New("property_not_found")
	ErrUnitNotFound      = errors.New("unit_not_found")
	ErrTenantNotFound    = errors.New("tenant_not_found")
	ErrDuplicateProperty = errors.New("duplicate_property")
)
