package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Landlord, error)
	FindByCustomerCode(ctx context.Context, db *gorm.DB, code string) (*Landlord, error)
	FindBySubscriptionCode(ctx context.Context, db *gorm.DB, code string) (*Landlord, error)
	StartTrial(ctx context.Context, db *gorm.DB, id snowflake.ID, startedAt, expiresAt, now time.Time) error
	UpdateReplica(ctx context.Context, db *gorm.DB, landlord *Landlord, now time.Time) error
	RecordPaymentFailure(ctx context.Context, db *gorm.DB, id snowflake.ID, reason string, now time.Time) error
	ListExpiredTrials(ctx context.Context, db *gorm.DB, asOf time.Time, limit int) ([]Landlord, error)
}
