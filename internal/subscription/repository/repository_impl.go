package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

const landlordColumns = `id, email, name, paystack_customer_code, paystack_subscription_code,
	 provider_status, plan_code, amount, currency, plan_interval, next_payment_at,
	 last_payment_error, payment_retry_count, trial_started_at, trial_expires_at,
	 subscription_synced_at, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Landlord, error) {
	return r.findOne(ctx, db, `id = ?`, id)
}

func (r *repo) FindByCustomerCode(ctx context.Context, db *gorm.DB, code string) (*subscriptiondomain.Landlord, error) {
	return r.findOne(ctx, db, `paystack_customer_code = ?`, code)
}

func (r *repo) FindBySubscriptionCode(ctx context.Context, db *gorm.DB, code string) (*subscriptiondomain.Landlord, error) {
	return r.findOne(ctx, db, `paystack_subscription_code = ?`, code)
}

func (r *repo) findOne(ctx context.Context, db *gorm.DB, where string, arg any) (*subscriptiondomain.Landlord, error) {
	var landlord subscriptiondomain.Landlord
	err := db.WithContext(ctx).Raw(
		`SELECT `+landlordColumns+` FROM landlords WHERE `+where,
		arg,
	).Scan(&landlord).Error
	if err != nil {
		return nil, err
	}
	if landlord.ID == 0 {
		return nil, nil
	}
	return &landlord, nil
}

func (r *repo) StartTrial(ctx context.Context, db *gorm.DB, id snowflake.ID, startedAt, expiresAt, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE landlords
		 SET trial_started_at = ?, trial_expires_at = ?, updated_at = ?
		 WHERE id = ? AND trial_started_at IS NULL`,
		startedAt,
		expiresAt,
		now,
		id,
	).Error
}

func (r *repo) UpdateReplica(ctx context.Context, db *gorm.DB, landlord *subscriptiondomain.Landlord, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE landlords
		 SET paystack_customer_code = ?,
		     paystack_subscription_code = ?,
		     provider_status = ?,
		     plan_code = ?,
		     amount = ?,
		     currency = ?,
		     plan_interval = ?,
		     next_payment_at = ?,
		     last_payment_error = ?,
		     payment_retry_count = ?,
		     subscription_synced_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		landlord.PaystackCustomerCode,
		landlord.PaystackSubscriptionCode,
		landlord.ProviderStatus,
		landlord.PlanCode,
		landlord.Amount,
		landlord.Currency,
		landlord.PlanInterval,
		landlord.NextPaymentAt,
		landlord.LastPaymentError,
		landlord.PaymentRetryCount,
		now,
		now,
		landlord.ID,
	).Error
}

func (r *repo) RecordPaymentFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE landlords
		 SET provider_status = 'attention',
		     last_payment_error = ?,
		     payment_retry_count = payment_retry_count + 1,
		     subscription_synced_at = ?,
		     updated_at = ?
		 WHERE id = ?`,
		reason,
		now,
		now,
		id,
	).Error
}

func (r *repo) ListExpiredTrials(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]subscriptiondomain.Landlord, error) {
	var landlords []subscriptiondomain.Landlord
	err := db.WithContext(ctx).Raw(
		`SELECT `+landlordColumns+`
		 FROM landlords
		 WHERE paystack_subscription_code IS NULL
		   AND trial_expires_at IS NOT NULL
		   AND trial_expires_at <= ?
		 ORDER BY trial_expires_at ASC
		 LIMIT ?`,
		asOf,
		limit,
	).Scan(&landlords).Error
	if err != nil {
		return nil, err
	}
	return landlords, nil
}
