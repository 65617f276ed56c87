package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	obsmetrics "github.com/rentfold/rentfold/internal/observability/metrics"
	"github.com/rentfold/rentfold/pkg/db"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type batchDigest struct {
	count int
	total int64
}

// GenerateInvoicesJob creates the missed monthly rent invoices for every
// active auto-invoicing lease. The unique index on (lease_id, period_start)
// makes re-runs idempotent: an insert that collides is a skip, not an error.
func (s *Scheduler) GenerateInvoicesJob(ctx context.Context) (Summary, error) {
	var summary Summary
	now := s.clock.Now()
	bcfg := s.bcfg.Current()
	digests := map[snowflake.ID]*batchDigest{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		leases, err := s.fetchLeasesForWork(ctx, tx, []leasedomain.LeaseStatus{
			leasedomain.LeaseStatusActive,
			leasedomain.LeaseStatusPending,
		}, s.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, lease := range leases {
			if !lease.AutoInvoice {
				summary.Skipped++
				continue
			}
			full := leasedomain.Lease{
				ID:         lease.ID,
				LeaseType:  lease.LeaseType,
				Status:     lease.Status,
				StartAt:    lease.StartAt,
				EndAt:      lease.EndAt,
				InvoiceDay: lease.InvoiceDay,
			}
			if leasedomain.ResolveStatus(full, now) != leasedomain.LeaseStatusActive {
				summary.Skipped++
				continue
			}

			created, err := s.generateForLease(ctx, tx, lease, now, bcfg.DueTermDays, bcfg.LookbackMonths)
			if err != nil {
				// One broken lease must not sink the batch.
				summary.Failed++
				s.log.Warn("invoice generation failed for lease",
					zap.String("lease_id", lease.ID.String()),
					zap.Error(err),
				)
				continue
			}
			summary.Processed++
			if created.count > 0 {
				digest, ok := digests[lease.LandlordID]
				if !ok {
					digest = &batchDigest{}
					digests[lease.LandlordID] = digest
				}
				digest.count += created.count
				digest.total += created.total
			}
		}

		for landlordID, digest := range digests {
			if _, err := s.notifications.Emit(ctx, tx, notificationdomain.EmitRequest{
				LandlordID: landlordID,
				Topic:      notificationdomain.TopicInvoiceBatchCreated,
				Payload: map[string]any{
					"invoice_count": digest.count,
					"total_amount":  digest.total,
				},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	generated := 0
	for _, digest := range digests {
		generated += digest.count
	}
	obsmetrics.Scheduler().AddInvoicesGenerated(generated)
	return summary, nil
}

func (s *Scheduler) generateForLease(ctx context.Context, tx *gorm.DB, lease WorkLease, now time.Time, dueTermDays, lookbackMonths int) (batchDigest, error) {
	var digest batchDigest

	last, err := s.lastGeneratedPeriod(ctx, tx, lease.ID)
	if err != nil {
		return digest, err
	}

	for _, period := range missedPeriods(lease, last, now, lookbackMonths) {
		period := period
		leaseID := lease.ID
		invoice := invoicedomain.Invoice{
			ID:          s.genID.Generate(),
			LandlordID:  lease.LandlordID,
			LeaseID:     &leaseID,
			Category:    invoicedomain.CategoryRent,
			Status:      invoicedomain.InvoiceStatusPending,
			AmountDue:   lease.RentAmount,
			Currency:    lease.Currency,
			Description: fmt.Sprintf("Rent for %s", period.Format("January 2006")),
			DueAt:       period.AddDate(0, 0, dueTermDays),
			PeriodStart: &period,
			Metadata:    datatypes.JSONMap{},
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.invoices.Insert(ctx, tx, &invoice); err != nil {
			if db.IsDuplicateKeyErr(err) {
				continue
			}
			return digest, err
		}
		digest.count++
		digest.total += invoice.AmountDue
	}
	return digest, nil
}

// missedPeriods lists the monthly period anchors a lease is owed invoices
// for: from the period after the last generated one (or the period covering
// the lease start), capped by the lookback window, up to the current period.
func missedPeriods(lease WorkLease, last *time.Time, now time.Time, lookbackMonths int) []time.Time {
	day := int(lease.InvoiceDay)
	if day < 1 || day > 28 {
		day = 1
	}

	// Period math works in whole days; a lease starting mid-day on its
	// anchor day still owns that day's period.
	start := lease.StartAt.UTC()
	startDate := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	current := anchorFor(now, day)
	if current.Before(startDate) {
		return nil
	}

	from := anchorFor(start, day)
	if from.Before(startDate) {
		// The anchor before the start belongs to the previous occupant;
		// the first billable period starts with the lease.
		from = from.AddDate(0, 1, 0)
	}
	if last != nil {
		from = last.UTC().AddDate(0, 1, 0)
	}
	if floor := anchorFor(now.AddDate(0, -lookbackMonths, 0), day); from.Before(floor) {
		from = floor
	}

	var periods []time.Time
	for period := from; !period.After(current); period = period.AddDate(0, 1, 0) {
		if lease.EndAt != nil && period.After(*lease.EndAt) {
			break
		}
		periods = append(periods, period)
	}
	return periods
}

// anchorFor returns the latest period anchor at or before t.
func anchorFor(t time.Time, day int) time.Time {
	t = t.UTC()
	anchor := time.Date(t.Year(), t.Month(), day, 0, 0, 0, 0, time.UTC)
	if anchor.After(t) {
		anchor = anchor.AddDate(0, -1, 0)
	}
	return anchor
}
