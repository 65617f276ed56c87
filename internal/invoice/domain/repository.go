package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*Invoice, error)
	FindByProviderReference(ctx context.Context, db *gorm.DB, reference string) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, filter ListFilter) ([]Invoice, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt, now time.Time) (bool, error)
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) error
	HasTransaction(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (bool, error)
}

type ListFilter struct {
	LeaseID  snowflake.ID
	Status   InvoiceStatus
	Category InvoiceCategory
	DueFrom  *time.Time
	DueTo    *time.Time
	// Cursor and Limit implement keyset pagination over id DESC. Limit 0
	// means no cap.
	Cursor snowflake.ID
	Limit  int
}
