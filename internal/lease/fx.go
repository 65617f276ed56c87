package lease

import (
	"github.com/rentfold/rentfold/internal/lease/repository"
	"github.com/rentfold/rentfold/internal/lease/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lease.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
