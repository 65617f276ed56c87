package property

import (
	"github.com/rentfold/rentfold/internal/property/repository"
	"github.com/rentfold/rentfold/internal/property/service"
	"go.uber.org/fx"
)

var Module = fx.Module("property.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
