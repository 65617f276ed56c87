package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	pkgdb "github.com/rentfold/rentfold/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

const invoiceColumns = `id, landlord_id, lease_id, category, status, amount_due, currency,
	 description, due_at, paid_at, period_start, provider_reference, metadata,
	 created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, landlord_id, lease_id, category, status, amount_due, currency,
			description, due_at, paid_at, period_start, provider_reference, metadata,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.LandlordID,
		invoice.LeaseID,
		invoice.Category,
		invoice.Status,
		invoice.AmountDue,
		invoice.Currency,
		invoice.Description,
		invoice.DueAt,
		invoice.PaidAt,
		invoice.PeriodStart,
		invoice.ProviderReference,
		invoice.Metadata,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices WHERE landlord_id = ? AND id = ?`,
		landlordID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, landlordID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices WHERE landlord_id = ? AND id = ?`+pkgdb.LockForUpdate(db),
		landlordID,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) FindByProviderReference(ctx context.Context, db *gorm.DB, reference string) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT `+invoiceColumns+`
		 FROM invoices WHERE provider_reference = ?`,
		reference,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, landlordID snowflake.ID, filter invoicedomain.ListFilter) ([]invoicedomain.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE landlord_id = ?`
	args := []any{landlordID}

	if filter.LeaseID != 0 {
		query += ` AND lease_id = ?`
		args = append(args, filter.LeaseID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.DueFrom != nil {
		query += ` AND due_at >= ?`
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query += ` AND due_at <= ?`
		args = append(args, *filter.DueTo)
	}
	if filter.Cursor != 0 {
		query += ` AND id < ?`
		args = append(args, filter.Cursor)
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var invoices []invoicedomain.Invoice
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paidAt, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?,
		     paid_at = COALESCE(paid_at, ?),
		     updated_at = ?
		 WHERE id = ? AND status <> ?`,
		invoicedomain.InvoiceStatusPaid,
		paidAt,
		now,
		id,
		invoicedomain.InvoiceStatusPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *invoicedomain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (
			id, landlord_id, invoice_id, lease_id, amount_paid, currency,
			description, provider_reference, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.LandlordID,
		txn.InvoiceID,
		txn.LeaseID,
		txn.AmountPaid,
		txn.Currency,
		txn.Description,
		txn.ProviderReference,
		txn.PaidAt,
		txn.CreatedAt,
	).Error
}

func (r *repo) HasTransaction(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM transactions WHERE invoice_id = ?`,
		invoiceID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
