package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	"github.com/rentfold/rentfold/internal/payment/adapters"
	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	cfg           config.Config
	adapters      *adapters.Registry
	invoices      invoicedomain.Repository
	landlords     subscriptiondomain.Repository
	subscriptions subscriptiondomain.Service
	notifications notificationdomain.Service
}

type ServiceParam struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Cfg           config.Config
	Adapters      *adapters.Registry
	Invoices      invoicedomain.Repository
	Landlords     subscriptiondomain.Repository
	Subscriptions subscriptiondomain.Service
	Notifications notificationdomain.Service
}

func NewService(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Cfg,
		adapters:      p.Adapters,
		invoices:      p.Invoices,
		landlords:     p.Landlords,
		subscriptions: p.Subscriptions,
		notifications: p.Notifications,
	}
}

func (s *Service) IngestWebhook(ctx context.Context, provider string, payload []byte, headers http.Header) error {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if !s.adapters.ProviderExists(provider) {
		return paymentdomain.ErrProviderNotFound
	}
	if !json.Valid(payload) {
		return paymentdomain.ErrInvalidPayload
	}

	adapter, err := s.adapters.NewAdapter(provider, paymentdomain.AdapterConfig{
		SecretKey: s.cfg.PaystackSecretKey,
	})
	if err != nil {
		return err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		return err
	}

	event, err := adapter.Parse(ctx, payload)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventIgnored) {
			s.log.Debug("webhook event ignored", zap.String("provider", provider))
			return nil
		}
		return err
	}
	if event.RawPayload == nil {
		event.RawPayload = payload
	}

	return s.ProcessEvent(ctx, event)
}

func (s *Service) ProcessEvent(ctx context.Context, event *paymentdomain.PaymentEvent) error {
	if event == nil {
		return paymentdomain.ErrInvalidEvent
	}
	event.Provider = strings.ToLower(strings.TrimSpace(event.Provider))
	event.ProviderEventID = strings.TrimSpace(event.ProviderEventID)
	if event.Provider == "" {
		return paymentdomain.ErrInvalidProvider
	}
	if event.ProviderEventID == "" || event.Type == "" {
		return paymentdomain.ErrInvalidEvent
	}

	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		landlord, err := s.resolveLandlord(ctx, tx, event.CustomerCode)
		if err != nil {
			return err
		}

		record := paymentdomain.EventRecord{
			ID:              s.genID.Generate(),
			Provider:        event.Provider,
			ProviderEventID: event.ProviderEventID,
			EventType:       event.Type,
			Payload:         datatypes.JSON(event.RawPayload),
			ReceivedAt:      now,
			ProcessedAt:     &now,
		}
		if landlord != nil {
			record.LandlordID = &landlord.ID
		}
		if err := s.insertEvent(ctx, tx, &record); err != nil {
			return err
		}

		switch event.Type {
		case paymentdomain.EventTypePaymentSucceeded:
			return s.applyPayment(ctx, tx, event, landlord, now)
		case paymentdomain.EventTypePaymentFailed, paymentdomain.EventTypeSubscriptionUpdate:
			return s.forwardSubscription(ctx, tx, event)
		case paymentdomain.EventTypeRefunded:
			// Refunds are kept as event records only; a paid invoice
			// stays paid and reconciliation happens out of band.
			// TODO: add an invoice reversal flow once the product side
			// defines how refunds should affect issued invoices.
			s.log.Info("refund recorded",
				zap.String("provider_ref", event.ProviderRef),
				zap.Int64("amount", event.Amount),
			)
			return nil
		case paymentdomain.EventTypePaymentPending:
			return nil
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	s.log.Info("payment event processed",
		zap.String("provider", event.Provider),
		zap.String("provider_event_id", event.ProviderEventID),
		zap.String("event_type", event.Type),
	)
	return nil
}

func (s *Service) insertEvent(ctx context.Context, tx *gorm.DB, record *paymentdomain.EventRecord) error {
	err := tx.WithContext(ctx).Exec(
		`INSERT INTO payment_events (id, provider, provider_event_id, event_type, landlord_id, payload, received_at, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Provider,
		record.ProviderEventID,
		record.EventType,
		record.LandlordID,
		record.Payload,
		record.ReceivedAt,
		record.ProcessedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return paymentdomain.ErrEventAlreadyProcessed
		}
		return err
	}
	return nil
}

func (s *Service) applyPayment(ctx context.Context, tx *gorm.DB, event *paymentdomain.PaymentEvent, landlord *subscriptiondomain.Landlord, now time.Time) error {
	invoice, err := s.resolveInvoice(ctx, tx, event, landlord)
	if err != nil {
		return err
	}
	if invoice == nil {
		s.log.Warn("payment without matching invoice",
			zap.String("provider_ref", event.ProviderRef),
			zap.String("invoice_reference", event.InvoiceReference),
		)
		return nil
	}

	paidAt := event.OccurredAt
	if paidAt.IsZero() {
		paidAt = now
	}

	updated, err := s.invoices.MarkPaid(ctx, tx, invoice.ID, paidAt, now)
	if err != nil {
		return err
	}

	amount := event.Amount
	if amount <= 0 {
		amount = invoice.AmountDue
	}
	txn := &invoicedomain.Transaction{
		ID:                s.genID.Generate(),
		LandlordID:        invoice.LandlordID,
		InvoiceID:         invoice.ID,
		LeaseID:           invoice.LeaseID,
		AmountPaid:        amount,
		Currency:          invoice.Currency,
		Description:       "provider payment",
		ProviderReference: event.ProviderRef,
		PaidAt:            paidAt,
		CreatedAt:         now,
	}
	if err := s.invoices.InsertTransaction(ctx, tx, txn); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil
		}
		return err
	}

	if updated {
		payload := map[string]any{
			"invoice_id": invoice.ID.String(),
			"amount":     amount,
			"currency":   invoice.Currency,
			"reference":  event.ProviderRef,
		}
		if _, err := s.notifications.Emit(ctx, tx, notificationdomain.EmitRequest{
			LandlordID: invoice.LandlordID,
			Topic:      notificationdomain.TopicPaymentReceived,
			Payload:    payload,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) forwardSubscription(ctx context.Context, tx *gorm.DB, event *paymentdomain.PaymentEvent) error {
	if event.Subscription == nil {
		return nil
	}
	err := s.subscriptions.ApplyProviderEvent(ctx, tx, *event.Subscription)
	if errors.Is(err, subscriptiondomain.ErrLandlordNotFound) {
		// The event is recorded; a replica for an unknown landlord has
		// nowhere to land and retrying the webhook will not change that.
		s.log.Warn("subscription event for unknown landlord",
			zap.String("customer_code", event.CustomerCode),
		)
		return nil
	}
	return err
}

func (s *Service) resolveLandlord(ctx context.Context, tx *gorm.DB, customerCode string) (*subscriptiondomain.Landlord, error) {
	customerCode = strings.TrimSpace(customerCode)
	if customerCode == "" {
		return nil, nil
	}
	return s.landlords.FindByCustomerCode(ctx, tx, customerCode)
}

func (s *Service) resolveInvoice(ctx context.Context, tx *gorm.DB, event *paymentdomain.PaymentEvent, landlord *subscriptiondomain.Landlord) (*invoicedomain.Invoice, error) {
	if ref := strings.TrimSpace(event.InvoiceReference); ref != "" {
		if landlord != nil {
			if id, err := snowflake.ParseString(ref); err == nil && id != 0 {
				invoice, err := s.invoices.FindByID(ctx, tx, landlord.ID, id)
				if err != nil || invoice != nil {
					return invoice, err
				}
			}
		}
		invoice, err := s.invoices.FindByProviderReference(ctx, tx, ref)
		if err != nil || invoice != nil {
			return invoice, err
		}
	}
	if ref := strings.TrimSpace(event.ProviderRef); ref != "" {
		return s.invoices.FindByProviderReference(ctx, tx, ref)
	}
	return nil, nil
}
