package observability

import (
	"github.com/rentfold/rentfold/internal/config"
	"github.com/rentfold/rentfold/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Invoke(ensureSchedulerMetrics),
)

func ensureSchedulerMetrics(cfg config.Config) {
	metrics.SchedulerWithConfig(metrics.Config{
		ServiceName: cfg.AppName,
		Environment: cfg.Environment,
	})
}
