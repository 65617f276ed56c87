package scheduler

import (
	"context"
	"fmt"

	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MarkOverdueJob moves pending invoices past their due date to OVERDUE and
// emits one invoice_overdue notification per invoice, deduped so re-runs
// stay quiet.
func (s *Scheduler) MarkOverdueJob(ctx context.Context) (Summary, error) {
	var summary Summary
	now := s.clock.Now()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoices, err := s.fetchOverdueInvoicesForWork(ctx, tx, now, s.cfg.BatchSize)
		if err != nil {
			return err
		}

		for _, invoice := range invoices {
			result := tx.WithContext(ctx).Exec(
				`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
				invoicedomain.InvoiceStatusOverdue,
				now,
				invoice.ID,
				invoicedomain.InvoiceStatusPending,
			)
			if result.Error != nil {
				summary.Failed++
				s.log.Warn("overdue update failed",
					zap.String("invoice_id", invoice.ID.String()),
					zap.Error(result.Error),
				)
				continue
			}
			if result.RowsAffected == 0 {
				summary.Skipped++
				continue
			}

			if _, err := s.notifications.Emit(ctx, tx, notificationdomain.EmitRequest{
				LandlordID: invoice.LandlordID,
				Topic:      notificationdomain.TopicInvoiceOverdue,
				Payload: map[string]any{
					"invoice_id": invoice.ID.String(),
					"amount_due": invoice.AmountDue,
					"currency":   invoice.Currency,
					"due_at":     invoice.DueAt,
				},
				DedupKey: fmt.Sprintf("invoice_overdue:%s", invoice.ID),
			}); err != nil {
				return err
			}
			summary.Processed++
		}
		return nil
	})
	return summary, err
}
