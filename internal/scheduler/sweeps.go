package scheduler

import (
	"context"
	"fmt"

	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaseStatusSweepJob refreshes the stored lease status cache from the
// resolver and warns landlords about fixed-term leases nearing their end.
// The expiring-soon notification is deduped per lease.
func (s *Scheduler) LeaseStatusSweepJob(ctx context.Context) (Summary, error) {
	var summary Summary
	now := s.clock.Now()
	window := s.bcfg.Current().ExpiringSoonDays

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leases, err := s.fetchLeasesForWork(ctx, tx, []leasedomain.LeaseStatus{
			leasedomain.LeaseStatusPending,
			leasedomain.LeaseStatusActive,
		}, s.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, lease := range leases {
			full := leasedomain.Lease{
				ID:         lease.ID,
				LeaseType:  lease.LeaseType,
				Status:     lease.Status,
				StartAt:    lease.StartAt,
				EndAt:      lease.EndAt,
				InvoiceDay: lease.InvoiceDay,
			}

			resolved := leasedomain.ResolveStatus(full, now)
			if resolved != lease.Status {
				if err := s.leases.UpdateStatus(ctx, tx, lease.ID, resolved, nil, now); err != nil {
					summary.Failed++
					s.log.Warn("lease status refresh failed",
						zap.String("lease_id", lease.ID.String()),
						zap.Error(err),
					)
					continue
				}
				summary.Processed++
			} else {
				summary.Skipped++
			}

			if leasedomain.ExpiringSoon(full, now, window) {
				if _, err := s.notifications.Emit(ctx, tx, notificationdomain.EmitRequest{
					LandlordID: lease.LandlordID,
					Topic:      notificationdomain.TopicLeaseExpiringSoon,
					Payload: map[string]any{
						"lease_id": lease.ID.String(),
						"unit_id":  lease.UnitID.String(),
						"end_at":   lease.EndAt,
					},
					DedupKey: fmt.Sprintf("lease_expiring_soon:%s", lease.ID),
				}); err != nil {
					return err
				}
			}
		}
		return nil
	})
	return summary, err
}

// TrialSweepJob emits a marker notification for each landlord whose trial
// has lapsed without a subscription. Access gating itself happens at read
// time through the status deriver; this sweep only surfaces the event.
func (s *Scheduler) TrialSweepJob(ctx context.Context) (Summary, error) {
	var summary Summary
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		landlords, err := s.landlords.ListExpiredTrials(ctx, tx, now, s.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, landlord := range landlords {
			emitted, err := s.notifications.Emit(ctx, tx, notificationdomain.EmitRequest{
				LandlordID: landlord.ID,
				Topic:      notificationdomain.TopicTrialExpired,
				Payload: map[string]any{
					"trial_expired_at": landlord.TrialExpiresAt,
				},
				DedupKey: fmt.Sprintf("trial_expired:%s", landlord.ID),
			})
			if err != nil {
				summary.Failed++
				continue
			}
			if emitted {
				summary.Processed++
			} else {
				summary.Skipped++
			}
		}
		return nil
	})
	return summary, err
}
