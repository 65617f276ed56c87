package service_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	invoicerepo "github.com/rentfold/rentfold/internal/invoice/repository"
	notificationservice "github.com/rentfold/rentfold/internal/notification/service"
	"github.com/rentfold/rentfold/internal/payment/adapters"
	"github.com/rentfold/rentfold/internal/payment/adapters/paystack"
	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	paymentservice "github.com/rentfold/rentfold/internal/payment/service"
	subscriptionrepo "github.com/rentfold/rentfold/internal/subscription/repository"
	subscriptionservice "github.com/rentfold/rentfold/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const webhookSecret = "sk_test_secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE landlords (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL DEFAULT '',
			paystack_customer_code TEXT,
			paystack_subscription_code TEXT,
			provider_status TEXT,
			plan_code TEXT,
			amount BIGINT,
			currency TEXT,
			plan_interval TEXT,
			next_payment_at DATETIME,
			last_payment_error TEXT,
			payment_retry_count INT NOT NULL DEFAULT 0,
			trial_started_at DATETIME,
			trial_expires_at DATETIME,
			subscription_synced_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
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
		`CREATE TABLE payment_events (
			id BIGINT PRIMARY KEY,
			provider TEXT NOT NULL,
			provider_event_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			landlord_id BIGINT,
			payload TEXT NOT NULL,
			received_at DATETIME NOT NULL,
			processed_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_payment_events_provider_event ON payment_events(provider, provider_event_id)`,
		`CREATE TABLE notifications (
			id BIGINT PRIMARY KEY,
			landlord_id BIGINT NOT NULL,
			topic TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedup_key TEXT,
			created_at DATETIME NOT NULL,
			dispatched_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_notifications_dedup ON notifications(dedup_key) WHERE dedup_key IS NOT NULL`,
	}
	for _, stmt := range schema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type fixture struct {
	db    *gorm.DB
	svc   paymentdomain.Service
	node  *snowflake.Node
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(21)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC))

	notificationSvc := notificationservice.NewService(notificationservice.ServiceParam{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
	})
	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  subscriptionrepo.Provide(),
		BCfg:  config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
	})
	svc := paymentservice.NewService(paymentservice.ServiceParam{
		DB:            db,
		Log:           zap.NewNop(),
		GenID:         node,
		Clock:         fake,
		Cfg:           config.Config{PaystackSecretKey: webhookSecret},
		Adapters:      adapters.NewRegistry(paystack.NewFactory()),
		Invoices:      invoicerepo.Provide(),
		Landlords:     subscriptionrepo.Provide(),
		Subscriptions: subscriptionSvc,
		Notifications: notificationSvc,
	})

	return &fixture{db: db, svc: svc, node: node, clock: fake}
}

func (f *fixture) seedLandlord(t *testing.T, customerCode string) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO landlords (id, email, name, paystack_customer_code, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("l%s@example.com", id), "Test Landlord", customerCode, now, now,
	).Error)
	return id
}

func (f *fixture) seedInvoice(t *testing.T, landlordID snowflake.ID, amount int64) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	now := f.clock.Now()
	require.NoError(t, f.db.Exec(
		`INSERT INTO invoices (id, landlord_id, category, status, amount_due, currency, due_at, metadata, created_at, updated_at)
		 VALUES (?, ?, 'RENT', 'PENDING', ?, 'ZAR', ?, '{}', ?, ?)`,
		id, landlordID, amount, now.Add(7*24*time.Hour), now, now,
	).Error)
	return id
}

func sign(payload []byte) string {
	mac := hmac.New(sha512.New, []byte(webhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func chargePayload(invoiceID snowflake.ID, reference, customerCode string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"event": "charge.success",
		"data": {
			"reference": %q,
			"amount": %d,
			"currency": "ZAR",
			"metadata": {"invoice_id": %q},
			"customer": {"customer_code": %q}
		}
	}`, reference, amount, invoiceID.String(), customerCode))
}

func TestIngestWebhookMarksInvoicePaid(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	landlordID := f.seedLandlord(t, "CUS_abc")
	invoiceID := f.seedInvoice(t, landlordID, 150000)

	payload := chargePayload(invoiceID, "ref_001", "CUS_abc", 150000)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, sign(payload))

	require.NoError(t, f.svc.IngestWebhook(ctx, "paystack", payload, headers))

	var invoice invoicedomain.Invoice
	require.NoError(t, f.db.Raw(`SELECT * FROM invoices WHERE id = ?`, invoiceID).Scan(&invoice).Error)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidAt)

	var txnCount int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM transactions WHERE invoice_id = ?`, invoiceID).Scan(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)

	var notified int64
	require.NoError(t, f.db.Raw(
		`SELECT COUNT(1) FROM notifications WHERE landlord_id = ? AND topic = 'payment_received'`,
		landlordID,
	).Scan(&notified).Error)
	assert.Equal(t, int64(1), notified)
}

func TestIngestWebhookReplayIsNoOp(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	landlordID := f.seedLandlord(t, "CUS_abc")
	invoiceID := f.seedInvoice(t, landlordID, 150000)

	payload := chargePayload(invoiceID, "ref_replay", "CUS_abc", 150000)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, sign(payload))

	require.NoError(t, f.svc.IngestWebhook(ctx, "paystack", payload, headers))

	// Same event delivered again: the dedup row blocks a second transaction.
	err := f.svc.IngestWebhook(ctx, "paystack", payload, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrEventAlreadyProcessed)

	var txnCount int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM transactions WHERE invoice_id = ?`, invoiceID).Scan(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestIngestWebhookRejectsBadSignature(t *testing.T) {
	f := setup(t)

	payload := []byte(`{"event":"charge.success","data":{"reference":"x","amount":1}}`)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, "deadbeef")

	err := f.svc.IngestWebhook(context.Background(), "paystack", payload, headers)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidSignature)

	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM payment_events`).Scan(&count).Error)
	assert.Zero(t, count)
}

func TestIngestWebhookSubscriptionCreateUpdatesReplica(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	landlordID := f.seedLandlord(t, "CUS_abc")

	payload := []byte(`{
		"event": "subscription.create",
		"data": {
			"subscription_code": "SUB_42",
			"status": "active",
			"amount": 49900,
			"next_payment_date": "2026-04-01T00:00:00Z",
			"customer": {"customer_code": "CUS_abc"},
			"plan": {"plan_code": "PLN_basic", "interval": "monthly", "currency": "ZAR"}
		}
	}`)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, sign(payload))

	require.NoError(t, f.svc.IngestWebhook(ctx, "paystack", payload, headers))

	var row struct {
		PaystackSubscriptionCode *string
		ProviderStatus           *string
		PlanCode                 *string
	}
	require.NoError(t, f.db.Raw(
		`SELECT paystack_subscription_code, provider_status, plan_code FROM landlords WHERE id = ?`,
		landlordID,
	).Scan(&row).Error)
	require.NotNil(t, row.PaystackSubscriptionCode)
	assert.Equal(t, "SUB_42", *row.PaystackSubscriptionCode)
	require.NotNil(t, row.ProviderStatus)
	assert.Equal(t, "active", *row.ProviderStatus)
	require.NotNil(t, row.PlanCode)
	assert.Equal(t, "PLN_basic", *row.PlanCode)
}

func TestIngestWebhookPaymentFailedSetsAttention(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	landlordID := f.seedLandlord(t, "CUS_abc")

	payload := []byte(`{
		"event": "invoice.payment_failed",
		"data": {
			"description": "insufficient funds",
			"subscription": {"subscription_code": "SUB_42"},
			"customer": {"customer_code": "CUS_abc"}
		}
	}`)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, sign(payload))

	require.NoError(t, f.svc.IngestWebhook(ctx, "paystack", payload, headers))

	var row struct {
		ProviderStatus    *string
		LastPaymentError  *string
		PaymentRetryCount int
	}
	require.NoError(t, f.db.Raw(
		`SELECT provider_status, last_payment_error, payment_retry_count FROM landlords WHERE id = ?`,
		landlordID,
	).Scan(&row).Error)
	require.NotNil(t, row.ProviderStatus)
	assert.Equal(t, "attention", *row.ProviderStatus)
	require.NotNil(t, row.LastPaymentError)
	assert.Equal(t, "insufficient funds", *row.LastPaymentError)
	assert.Equal(t, 1, row.PaymentRetryCount)
}

func TestIngestWebhookUnknownEventIsIgnored(t *testing.T) {
	f := setup(t)

	payload := []byte(`{"event":"transfer.success","data":{}}`)
	headers := http.Header{}
	headers.Set(paystack.SignatureHeader, sign(payload))

	require.NoError(t, f.svc.IngestWebhook(context.Background(), "paystack", payload, headers))

	var count int64
	require.NoError(t, f.db.Raw(`SELECT COUNT(1) FROM payment_events`).Scan(&count).Error)
	assert.Zero(t, count)
}
