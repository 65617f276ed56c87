package subscription

import (
	"github.com/rentfold/rentfold/internal/subscription/repository"
	"github.com/rentfold/rentfold/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
