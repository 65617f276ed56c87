package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	"github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) notificationdomain.Service {
	return &Service{
		log:   p.Log.Named("notification.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Emit(ctx context.Context, tx *gorm.DB, req notificationdomain.EmitRequest) (bool, error) {
	now := s.clock.Now()

	var dedupKey *string
	if req.DedupKey != "" {
		dedupKey = &req.DedupKey
	}
	payload := datatypes.JSONMap{}
	for k, v := range req.Payload {
		payload[k] = v
	}

	notification := notificationdomain.Notification{
		ID:           s.genID.Generate(),
		LandlordID:   req.LandlordID,
		Topic:        req.Topic,
		Payload:      payload,
		DedupKey:     dedupKey,
		CreatedAt:    now,
		DispatchedAt: &now,
	}

	err := tx.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, landlord_id, topic, payload, dedup_key, created_at, dispatched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.LandlordID,
		notification.Topic,
		notification.Payload,
		notification.DedupKey,
		notification.CreatedAt,
		notification.DispatchedAt,
	).Error
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}

	// Dispatch is a structured log line; downstream delivery tails these.
	s.log.Info("notification dispatched",
		zap.String("notification_id", notification.ID.String()),
		zap.String("landlord_id", req.LandlordID.String()),
		zap.String("topic", req.Topic),
	)
	return true, nil
}
