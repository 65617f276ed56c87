package domain

import (
	"context"
	"errors"
	"time"

	"github.com/rentfold/rentfold/pkg/db/pagination"
)

type CreateInvoiceRequest struct {
	LeaseID     string          `json:"lease_id,omitempty"`
	Category    InvoiceCategory `json:"category"`
	AmountDue   int64           `json:"amount_due"`
	Currency    string          `json:"currency"`
	Description string          `json:"description,omitempty"`
	DueAt       time.Time       `json:"due_at"`
	MarkPaid    bool            `json:"mark_paid,omitempty"`
}

type MarkPaidRequest struct {
	InvoiceID string `json:"invoice_id"`
	Reference string `json:"reference,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
}

type ListInvoiceRequest struct {
	LeaseID   string
	Status    string
	Category  string
	PageToken string
	PageSize  int
}

// InvoiceView is an invoice with its effective status resolved at read time.
type InvoiceView struct {
	Invoice
	EffectiveStatus InvoiceStatus `json:"effective_status"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceView, error)
	GetByID(ctx context.Context, id string) (InvoiceView, error)
	List(ctx context.Context, req ListInvoiceRequest) ([]InvoiceView, *pagination.PageInfo, error)
	MarkPaid(ctx context.Context, req MarkPaidRequest) (InvoiceView, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvalidLandlord    = errors.New("invalid_landlord")
	ErrInvalidInvoice     = errors.New("invalid_invoice")
	ErrInvalidLease       = errors.New("invalid_lease")
	ErrInvalidCategory    = errors.New("invalid_category")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrInvalidDueDate     = errors.New("invalid_due_date")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
	ErrInvoiceNotFound    = errors.New("invoice_not_found")
	ErrInvoiceAlreadyPaid = errors.New("invoice_already_paid")
)
