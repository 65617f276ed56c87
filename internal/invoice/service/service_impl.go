package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	"github.com/rentfold/rentfold/internal/invoice/pdf"
	"github.com/rentfold/rentfold/internal/landlordctx"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	"github.com/rentfold/rentfold/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     invoicedomain.Repository
	leases   leasedomain.Repository
	renderer pdf.Renderer
}

type ServiceParam struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     invoicedomain.Repository
	Leases   leasedomain.Repository
	Renderer pdf.Renderer
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		leases:   p.Leases,
		renderer: p.Renderer,
	}
}

func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidLandlord
	}

	if !invoicedomain.ValidCategory(req.Category) {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidCategory
	}
	if req.AmountDue <= 0 {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidAmount
	}
	if len(strings.TrimSpace(req.Currency)) != 3 {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidCurrency
	}
	if req.DueAt.IsZero() {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidDueDate
	}

	var leaseID *snowflake.ID
	if strings.TrimSpace(req.LeaseID) != "" {
		parsed, err := s.parseID(req.LeaseID, invoicedomain.ErrInvalidLease)
		if err != nil {
			return invoicedomain.InvoiceView{}, err
		}
		lease, err := s.leases.FindByID(ctx, s.db, landlordID, parsed)
		if err != nil {
			return invoicedomain.InvoiceView{}, err
		}
		if lease == nil {
			return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidLease
		}
		leaseID = &parsed
	}

	now := s.clock.Now()
	invoice := invoicedomain.Invoice{
		ID:          s.genID.Generate(),
		LandlordID:  landlordID,
		LeaseID:     leaseID,
		Category:    req.Category,
		Status:      invoicedomain.InvoiceStatusPending,
		AmountDue:   req.AmountDue,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Description: strings.TrimSpace(req.Description),
		DueAt:       req.DueAt.UTC(),
		Metadata:    datatypes.JSONMap{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.MarkPaid {
		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaidAt = &now
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &invoice); err != nil {
			return err
		}
		// Recording an invoice as already settled still leaves a payment trail.
		if req.MarkPaid {
			return s.repo.InsertTransaction(ctx, tx, s.manualTransaction(invoice, invoice.AmountDue, now))
		}
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.log.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("category", string(invoice.Category)),
		zap.Int64("amount_due", invoice.AmountDue),
	)
	return s.view(invoice, now), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.InvoiceView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidLandlord
	}

	invoiceID, err := s.parseID(id, invoicedomain.ErrInvalidInvoice)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	invoice, err := s.repo.FindByID(ctx, s.db, landlordID, invoiceID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}
	if invoice == nil {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvoiceNotFound
	}

	return s.view(*invoice, s.clock.Now()), nil
}

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) ([]invoicedomain.InvoiceView, *pagination.PageInfo, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return nil, nil, invoicedomain.ErrInvalidLandlord
	}

	filter := invoicedomain.ListFilter{}
	if leaseID := strings.TrimSpace(req.LeaseID); leaseID != "" {
		parsed, err := s.parseID(leaseID, invoicedomain.ErrInvalidLease)
		if err != nil {
			return nil, nil, err
		}
		filter.LeaseID = parsed
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = invoicedomain.InvoiceStatus(strings.ToUpper(status))
	}
	if category := strings.TrimSpace(req.Category); category != "" {
		filter.Category = invoicedomain.InvoiceCategory(strings.ToUpper(category))
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, nil, invoicedomain.ErrInvalidPageToken
		}
		parsed, err := s.parseID(cursor.ID, invoicedomain.ErrInvalidPageToken)
		if err != nil {
			return nil, nil, err
		}
		filter.Cursor = parsed
	}
	// Fetch one extra row to learn whether another page exists.
	filter.Limit = pageSize + 1

	invoices, err := s.repo.List(ctx, s.db, landlordID, filter)
	if err != nil {
		return nil, nil, err
	}

	pageInfo := &pagination.PageInfo{}
	if len(invoices) > pageSize {
		invoices = invoices[:pageSize]
		pageInfo.HasMore = true
	}
	if pageInfo.HasMore {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID: invoices[len(invoices)-1].ID.String(),
		})
		if err != nil {
			return nil, nil, err
		}
		pageInfo.NextPageToken = token
	}

	now := s.clock.Now()
	views := make([]invoicedomain.InvoiceView, 0, len(invoices))
	for _, invoice := range invoices {
		views = append(views, s.view(invoice, now))
	}
	return views, pageInfo, nil
}

func (s *Service) MarkPaid(ctx context.Context, req invoicedomain.MarkPaidRequest) (invoicedomain.InvoiceView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidLandlord
	}

	invoiceID, err := s.parseID(req.InvoiceID, invoicedomain.ErrInvalidInvoice)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	now := s.clock.Now()
	var paid invoicedomain.Invoice

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, landlordID, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrInvoiceNotFound
		}
		if invoice.Status == invoicedomain.InvoiceStatusPaid {
			return invoicedomain.ErrInvoiceAlreadyPaid
		}

		updated, err := s.repo.MarkPaid(ctx, tx, invoice.ID, now, now)
		if err != nil {
			return err
		}
		if !updated {
			return invoicedomain.ErrInvoiceAlreadyPaid
		}

		amount := req.Amount
		if amount <= 0 {
			amount = invoice.AmountDue
		}
		txn := s.manualTransaction(*invoice, amount, now)
		if ref := strings.TrimSpace(req.Reference); ref != "" {
			txn.ProviderReference = ref
		}
		if err := s.repo.InsertTransaction(ctx, tx, txn); err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.UpdatedAt = now
		paid = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.log.Info("invoice marked paid", zap.String("invoice_id", paid.ID.String()))
	return s.view(paid, now), nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	view, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := pdf.Document{
		LandlordName:  s.landlordName(ctx, view.LandlordID),
		InvoiceNumber: view.ID.String(),
		Category:      string(view.Category),
		Status:        string(view.EffectiveStatus),
		IssuedDate:    view.CreatedAt.Format("Jan 2, 2006"),
		DueDate:       view.DueAt.Format("Jan 2, 2006"),
		Description:   view.Description,
		AmountDue:     formatAmount(view.AmountDue, view.Currency),
	}
	if view.PeriodStart != nil {
		doc.PeriodLabel = view.PeriodStart.Format("January 2006")
	}
	if view.PaidAt != nil {
		doc.PaidDate = view.PaidAt.Format("Jan 2, 2006")
	}
	if view.LeaseID != nil {
		doc.UnitLabel = s.unitLabel(ctx, *view.LeaseID)
	}

	return s.renderer.Render(ctx, doc)
}

func (s *Service) view(invoice invoicedomain.Invoice, now time.Time) invoicedomain.InvoiceView {
	return invoicedomain.InvoiceView{
		Invoice:         invoice,
		EffectiveStatus: invoicedomain.EffectiveStatus(invoice, false, now),
	}
}

func (s *Service) manualTransaction(invoice invoicedomain.Invoice, amount int64, now time.Time) *invoicedomain.Transaction {
	return &invoicedomain.Transaction{
		ID:                s.genID.Generate(),
		LandlordID:        invoice.LandlordID,
		InvoiceID:         invoice.ID,
		LeaseID:           invoice.LeaseID,
		AmountPaid:        amount,
		Currency:          invoice.Currency,
		Description:       "manual payment",
		ProviderReference: fmt.Sprintf("MANUAL-%s", s.genID.Generate()),
		PaidAt:            now,
		CreatedAt:         now,
	}
}

func (s *Service) landlordName(ctx context.Context, landlordID snowflake.ID) string {
	var name string
	err := s.db.WithContext(ctx).Raw(
		`SELECT name FROM landlords WHERE id = ?`, landlordID,
	).Scan(&name).Error
	if err != nil {
		s.log.Warn("landlord lookup failed", zap.Error(err))
	}
	return name
}

func (s *Service) unitLabel(ctx context.Context, leaseID snowflake.ID) string {
	var row struct {
		UnitLabel    string
		PropertyName string
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT u.label AS unit_label, p.name AS property_name
		 FROM leases l
		 JOIN units u ON u.id = l.unit_id
		 JOIN properties p ON p.id = u.property_id
		 WHERE l.id = ?`,
		leaseID,
	).Scan(&row).Error
	if err != nil {
		s.log.Warn("unit lookup failed", zap.Error(err))
		return ""
	}
	if row.PropertyName == "" {
		return row.UnitLabel
	}
	return row.PropertyName + ", " + row.UnitLabel
}

func formatAmount(minor int64, currency string) string {
	return fmt.Sprintf("%s %.2f", currency, float64(minor)/100)
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
