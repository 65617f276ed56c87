package invoice

import (
	"github.com/rentfold/rentfold/internal/invoice/pdf"
	"github.com/rentfold/rentfold/internal/invoice/repository"
	"github.com/rentfold/rentfold/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	fx.Provide(repository.Provide),
	fx.Provide(pdf.NewRenderer),
	fx.Provide(service.NewService),
)
