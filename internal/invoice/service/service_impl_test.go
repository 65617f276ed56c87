package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentfold/rentfold/internal/clock"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	"github.com/rentfold/rentfold/internal/invoice/pdf"
	invoicerepo "github.com/rentfold/rentfold/internal/invoice/repository"
	invoiceservice "github.com/rentfold/rentfold/internal/invoice/service"
	"github.com/rentfold/rentfold/internal/landlordctx"
	leaserepo "github.com/rentfold/rentfold/internal/lease/repository"
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
		`CREATE TABLE transactions (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			invoice_id BIGINT NOT NULL,
			lease_id BIGINT,
			amount_paid BIGINT NOT NULL,
			currency TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			provider_reference TEXT NOT NULL,
			paid_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_transactions_provider_reference ON transactions(provider_reference)`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type stubRenderer struct{}

func (stubRenderer) Render(ctx context.Context, doc pdf.Document) ([]byte, error) {
	_ = ctx
	_ = doc
	return []byte("%PDF-1.4"), nil
}

type fixture struct {
	db    *gorm.DB
	svc   invoicedomain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
	ctx   context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(22)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))

	svc := invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Repo:     invoicerepo.Provide(),
		Leases:   leaserepo.Provide(),
		Renderer: stubRenderer{},
	})

	landlordID := node.Generate()
	ctx := landlordctx.WithLandlordID(context.Background(), landlordID)
	return &fixture{db: db, svc: svc, node: node, clock: fake, ctx: ctx}
}

func (f *fixture) createInvoice(t *testing.T, amount int64) invoicedomain.InvoiceView {
	t.Helper()
	view, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Category:  invoicedomain.CategoryRent,
		AmountDue: amount,
		Currency:  "ZAR",
		DueAt:     f.clock.Now().AddDate(0, 0, 7),
	})
	require.NoError(t, err)
	return view
}

func TestListPaginatesWithCursor(t *testing.T) {
	f := setup(t)
	for i := 0; i < 5; i++ {
		f.createInvoice(t, int64(1000*(i+1)))
	}

	seen := map[snowflake.ID]bool{}
	var token string
	pageSizes := []int{2, 2, 1}
	for i, want := range pageSizes {
		views, pageInfo, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{
			PageSize:  2,
			PageToken: token,
		})
		require.NoError(t, err)
		require.Len(t, views, want, "page %d", i)
		for _, view := range views {
			assert.False(t, seen[view.ID], "invoice repeated across pages")
			seen[view.ID] = true
		}

		if i < len(pageSizes)-1 {
			require.True(t, pageInfo.HasMore)
			require.NotEmpty(t, pageInfo.NextPageToken)
			token = pageInfo.NextPageToken
		} else {
			assert.False(t, pageInfo.HasMore)
			assert.Empty(t, pageInfo.NextPageToken)
		}
	}
	assert.Len(t, seen, 5)
}

func TestListRejectsBadPageToken(t *testing.T) {
	f := setup(t)

	_, _, err := f.svc.List(f.ctx, invoicedomain.ListInvoiceRequest{PageToken: "not-base64!"})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidPageToken)
}

func TestListIsScopedToLandlord(t *testing.T) {
	f := setup(t)
	f.createInvoice(t, 5000)

	otherCtx := landlordctx.WithLandlordID(context.Background(), f.node.Generate())
	views, _, err := f.svc.List(otherCtx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestMarkPaidIsTerminal(t *testing.T) {
	f := setup(t)
	created := f.createInvoice(t, 12000)

	paid, err := f.svc.MarkPaid(f.ctx, invoicedomain.MarkPaidRequest{
		InvoiceID: created.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	_, err = f.svc.MarkPaid(f.ctx, invoicedomain.MarkPaidRequest{
		InvoiceID: created.ID.String(),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceAlreadyPaid)

	var count int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM transactions WHERE invoice_id = ?`, created.ID,
	).Scan(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateValidatesInput(t *testing.T) {
	f := setup(t)
	due := f.clock.Now().AddDate(0, 0, 7)

	cases := []struct {
		name string
		req  invoicedomain.CreateInvoiceRequest
		want error
	}{
		{
			name: "unknown category",
			req: invoicedomain.CreateInvoiceRequest{
				Category: "SOMETHING", AmountDue: 100, Currency: "ZAR", DueAt: due,
			},
			want: invoicedomain.ErrInvalidCategory,
		},
		{
			name: "zero amount",
			req: invoicedomain.CreateInvoiceRequest{
				Category: invoicedomain.CategoryRent, Currency: "ZAR", DueAt: due,
			},
			want: invoicedomain.ErrInvalidAmount,
		},
		{
			name: "bad currency",
			req: invoicedomain.CreateInvoiceRequest{
				Category: invoicedomain.CategoryRent, AmountDue: 100, Currency: "ZARS", DueAt: due,
			},
			want: invoicedomain.ErrInvalidCurrency,
		},
		{
			name: "missing due date",
			req: invoicedomain.CreateInvoiceRequest{
				Category: invoicedomain.CategoryRent, AmountDue: 100, Currency: "ZAR",
			},
			want: invoicedomain.ErrInvalidDueDate,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(f.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCreateMarkPaidRecordsManualTransaction(t *testing.T) {
	f := setup(t)

	view, err := f.svc.Create(f.ctx, invoicedomain.CreateInvoiceRequest{
		Category:  invoicedomain.CategoryDeposit,
		AmountDue: 25000,
		Currency:  "zar",
		DueAt:     f.clock.Now(),
		MarkPaid:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, view.Status)
	assert.Equal(t, "ZAR", view.Currency)

	var count int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM transactions WHERE invoice_id = ?`, view.ID,
	).Scan(&count).Error)
	assert.EqualValues(t, 1, count)
}
