package service

import (
	"context"
	"errors"
	"time"

	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/landlordctx"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  subscriptiondomain.Repository
	bcfg  *config.BillingConfigHolder
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  subscriptiondomain.Repository
	BCfg  *config.BillingConfigHolder
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		clock: p.Clock,
		repo:  p.Repo,
		bcfg:  p.BCfg,
	}
}

func (s *Service) StartTrial(ctx context.Context) (subscriptiondomain.StatusView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return subscriptiondomain.StatusView{}, subscriptiondomain.ErrInvalidLandlord
	}

	landlord, err := s.repo.FindByID(ctx, s.db, landlordID)
	if err != nil {
		return subscriptiondomain.StatusView{}, err
	}
	if landlord == nil {
		return subscriptiondomain.StatusView{}, subscriptiondomain.ErrLandlordNotFound
	}
	if landlord.TrialStartedAt != nil {
		return subscriptiondomain.StatusView{}, subscriptiondomain.ErrTrialAlreadyStarted
	}

	now := s.clock.Now()
	expiresAt := now.Add(time.Duration(s.bcfg.Current().TrialDays) * 24 * time.Hour)
	if err := s.repo.StartTrial(ctx, s.db, landlordID, now, expiresAt, now); err != nil {
		return subscriptiondomain.StatusView{}, err
	}

	landlord.TrialStartedAt = &now
	landlord.TrialExpiresAt = &expiresAt

	s.log.Info("trial started",
		zap.String("landlord_id", landlordID.String()),
		zap.Time("expires_at", expiresAt),
	)
	return s.view(*landlord, now)
}

func (s *Service) GetStatus(ctx context.Context) (subscriptiondomain.StatusView, error) {
	landlordID, ok := landlordctx.LandlordIDFromContext(ctx)
	if !ok || landlordID == 0 {
		return subscriptiondomain.StatusView{}, subscriptiondomain.ErrInvalidLandlord
	}

	landlord, err := s.repo.FindByID(ctx, s.db, landlordID)
	if err != nil {
		return subscriptiondomain.StatusView{}, err
	}
	if landlord == nil {
		return subscriptiondomain.StatusView{}, subscriptiondomain.ErrLandlordNotFound
	}

	return s.view(*landlord, s.clock.Now())
}

func (s *Service) ApplyProviderEvent(ctx context.Context, tx *gorm.DB, update subscriptiondomain.ProviderUpdate) error {
	landlord, err := s.findForUpdate(ctx, tx, update)
	if err != nil {
		return err
	}
	if landlord == nil {
		s.log.Warn("provider event for unknown landlord",
			zap.String("event_type", update.EventType),
			zap.String("customer_code", update.CustomerCode),
		)
		return subscriptiondomain.ErrLandlordNotFound
	}

	now := s.clock.Now()

	switch update.EventType {
	case "subscription.create":
		status := update.Status
		if status == "" {
			status = "active"
		}
		landlord.PaystackCustomerCode = nonEmpty(update.CustomerCode, landlord.PaystackCustomerCode)
		landlord.PaystackSubscriptionCode = &update.SubscriptionCode
		landlord.ProviderStatus = &status
		landlord.PlanCode = nonEmpty(update.PlanCode, landlord.PlanCode)
		if update.Amount > 0 {
			landlord.Amount = &update.Amount
		}
		landlord.Currency = nonEmpty(update.Currency, landlord.Currency)
		landlord.PlanInterval = nonEmpty(update.Interval, landlord.PlanInterval)
		landlord.NextPaymentAt = update.NextPaymentAt
		landlord.LastPaymentError = nil
		landlord.PaymentRetryCount = 0
		err = s.repo.UpdateReplica(ctx, tx, landlord, now)

	case "subscription.not_renew":
		status := "non-renewing"
		landlord.ProviderStatus = &status
		err = s.repo.UpdateReplica(ctx, tx, landlord, now)

	case "subscription.disable":
		// Paystack reports either cancelled or completed on disable.
		status := update.Status
		if status != "completed" {
			status = "cancelled"
		}
		landlord.ProviderStatus = &status
		err = s.repo.UpdateReplica(ctx, tx, landlord, now)

	case "invoice.payment_failed":
		err = s.repo.RecordPaymentFailure(ctx, tx, landlord.ID, update.FailureReason, now)

	default:
		s.log.Warn("ignoring provider event", zap.String("event_type", update.EventType))
		return nil
	}
	if err != nil {
		return err
	}

	s.log.Info("subscription replica updated",
		zap.String("landlord_id", landlord.ID.String()),
		zap.String("event_type", update.EventType),
	)
	return nil
}

func (s *Service) findForUpdate(ctx context.Context, tx *gorm.DB, update subscriptiondomain.ProviderUpdate) (*subscriptiondomain.Landlord, error) {
	if update.CustomerCode != "" {
		landlord, err := s.repo.FindByCustomerCode(ctx, tx, update.CustomerCode)
		if err != nil || landlord != nil {
			return landlord, err
		}
	}
	if update.SubscriptionCode != "" {
		return s.repo.FindBySubscriptionCode(ctx, tx, update.SubscriptionCode)
	}
	return nil, nil
}

func (s *Service) view(landlord subscriptiondomain.Landlord, now time.Time) (subscriptiondomain.StatusView, error) {
	derived, err := subscriptiondomain.Derive(landlord, now)
	view := subscriptiondomain.StatusView{
		Status:          derived.Status,
		GrantsAccess:    subscriptiondomain.GrantsAccess(derived.Status),
		DaysLeftInTrial: derived.DaysLeftInTrial,
		NextPaymentAt:   landlord.NextPaymentAt,
	}
	if landlord.ProviderStatus != nil {
		view.ProviderStatus = *landlord.ProviderStatus
	}
	if err != nil {
		// Unknown provider status still yields a view; access stays denied.
		if errors.Is(err, subscriptiondomain.ErrUnknownProviderStatus) {
			s.log.Warn("unknown provider status",
				zap.String("landlord_id", landlord.ID.String()),
				zap.String("provider_status", view.ProviderStatus),
			)
			return view, nil
		}
		return subscriptiondomain.StatusView{}, err
	}
	return view, nil
}

func nonEmpty(value string, fallback *string) *string {
	if value != "" {
		return &value
	}
	return fallback
}
