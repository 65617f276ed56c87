// Package scheduler runs the temporal sweeps: invoice generation, overdue
// marking, lease status refresh and trial expiry.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rentfold/rentfold/internal/clock"
	"github.com/rentfold/rentfold/internal/config"
	invoicedomain "github.com/rentfold/rentfold/internal/invoice/domain"
	leasedomain "github.com/rentfold/rentfold/internal/lease/domain"
	notificationdomain "github.com/rentfold/rentfold/internal/notification/domain"
	obsmetrics "github.com/rentfold/rentfold/internal/observability/metrics"
	subscriptiondomain "github.com/rentfold/rentfold/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const runLockKey = "rentfold:scheduler:run"

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	BCfg          *config.BillingConfigHolder
	Leases        leasedomain.Repository
	Invoices      invoicedomain.Repository
	Landlords     subscriptiondomain.Repository
	Notifications notificationdomain.Service
	Locker        *Locker `optional:"true"`
	Config        Config  `optional:"true"`
}

type Scheduler struct {
	db            *gorm.DB
	log           *zap.Logger
	cfg           Config
	genID         *snowflake.Node
	clock         clock.Clock
	bcfg          *config.BillingConfigHolder
	leases        leasedomain.Repository
	invoices      invoicedomain.Repository
	landlords     subscriptiondomain.Repository
	notifications notificationdomain.Service
	locker        *Locker
}

// Summary reports one job's outcome for the run endpoint.
type Summary struct {
	Job       string `json:"job"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.BCfg == nil ||
		p.Leases == nil || p.Invoices == nil || p.Landlords == nil || p.Notifications == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:            p.DB,
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		genID:         p.GenID,
		clock:         p.Clock,
		bcfg:          p.BCfg,
		leases:        p.Leases,
		invoices:      p.Invoices,
		landlords:     p.Landlords,
		notifications: p.Notifications,
		locker:        p.Locker,
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) (Summary, error),
) (Summary, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	summary, err := fn(ctx)
	summary.Job = name
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	schedMetrics.AddBatchProcessed(name, summary.Processed)
	if err == nil {
		log.Info("job finished",
			zap.Int("processed", summary.Processed),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped),
		)
		return summary, nil
	}

	// A deadline is a soft timeout: the next tick picks up where this one
	// stopped, so it is not surfaced as a run error.
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		schedMetrics.IncJobTimeout(name)
	}
	schedMetrics.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return summary, nil
	}

	log.Error("job failed", zap.Error(err))
	return summary, fmt.Errorf("%s: %w", name, err)
}

// RunOnce executes every enabled job once and joins their errors. When a
// redis locker is configured, an overlapping run elsewhere makes this a
// no-op.
func (s *Scheduler) RunOnce(parent context.Context) ([]Summary, error) {
	if s.locker != nil {
		token, acquired, err := s.locker.TryLock(parent, runLockKey, s.cfg.LockTTL)
		if err != nil {
			return nil, err
		}
		if !acquired {
			s.log.Info("run skipped, lock held elsewhere")
			return nil, nil
		}
		defer func() {
			if err := s.locker.Release(parent, runLockKey, token); err != nil {
				s.log.Warn("lock release failed", zap.Error(err))
			}
		}()
	}

	jobs := []struct {
		Name string
		Run  func(context.Context) (Summary, error)
	}{
		{"generate_invoices", s.GenerateInvoicesJob},
		{"mark_overdue", s.MarkOverdueJob},
		{"lease_status_sweep", s.LeaseStatusSweepJob},
		{"trial_sweep", s.TrialSweepJob},
	}

	var (
		summaries []Summary
		err       error
	)
	for _, job := range jobs {
		if !s.cfg.isJobEnabled(job.Name) {
			continue
		}
		summary, jobErr := s.runJob(parent, job.Name, s.cfg.JobTimeout, job.Run)
		summaries = append(summaries, summary)
		err = errors.Join(err, jobErr)
	}
	return summaries, err
}

// RunForever ticks RunOnce until the context ends.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("scheduled run failed", zap.Error(err))
			}
		}
	}
}
