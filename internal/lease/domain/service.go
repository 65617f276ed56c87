package domain

import (
	"context"
	"errors"
	"time"
)

type CreateLeaseRequest struct {
	UnitID        string     `json:"unit_id"`
	TenantIDs     []string   `json:"tenant_ids"`
	LeaseType     LeaseType  `json:"lease_type"`
	RentAmount    int64      `json:"rent_amount"`
	DepositAmount int64      `json:"deposit_amount"`
	Currency      string     `json:"currency"`
	StartAt       time.Time  `json:"start_at"`
	EndAt         *time.Time `json:"end_at,omitempty"`
	AutoInvoice   *bool      `json:"auto_invoice,omitempty"`
	InvoiceDay    int16      `json:"invoice_day,omitempty"`
}

type ListLeaseRequest struct {
	UnitID string
	Status string
}

// LeaseView is a lease with its effective status resolved at read time.
type LeaseView struct {
	Lease
	EffectiveStatus LeaseStatus `json:"effective_status"`
	ExpiringSoon    bool        `json:"expiring_soon"`
}

type Service interface {
	Create(ctx context.Context, req CreateLeaseRequest) (LeaseView, error)
	GetByID(ctx context.Context, id string) (LeaseView, error)
	List(ctx context.Context, req ListLeaseRequest) ([]LeaseView, error)
	Terminate(ctx context.Context, id string) (LeaseView, error)
}

var (
	ErrInvalidLandlord   = errors.New("invalid_landlord")
	ErrInvalidUnit       = errors.New("invalid_unit")
	ErrInvalidTenant     = errors.New("invalid_tenant")
	ErrInvalidLease      = errors.New("invalid_lease")
	ErrInvalidLeaseType  = errors.New("invalid_lease_type")
	ErrInvalidRentAmount = errors.New("invalid_rent_amount")
	ErrInvalidCurrency   = errors.New("invalid_currency")
	ErrInvalidStartAt    = errors.New("invalid_start_at")
	ErrMissingEndDate    = errors.New("missing_end_date")
	ErrInvalidEndDate    = errors.New("invalid_end_date")
	ErrInvalidInvoiceDay = errors.New("invalid_invoice_day")
	ErrLeaseNotFound     = errors.New("lease_not_found")
	ErrLeaseTerminated   = errors.New("lease_already_terminated")
	ErrUnitOccupied      = errors.New("unit_occupied")
	ErrUnitNotFound      = errors.New("unit_not_found")
)
