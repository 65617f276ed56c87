package payment

import (
	"github.com/rentfold/rentfold/internal/payment/adapters"
	"github.com/rentfold/rentfold/internal/payment/adapters/paystack"
	paymentdomain "github.com/rentfold/rentfold/internal/payment/domain"
	"github.com/rentfold/rentfold/internal/payment/service"
	"go.uber.org/fx"
)

func newRegistry() *adapters.Registry {
	return adapters.NewRegistry(factories()...)
}

func factories() []paymentdomain.AdapterFactory {
	return []paymentdomain.AdapterFactory{
		paystack.NewFactory(),
	}
}

var Module = fx.Module("payment.service",
	fx.Provide(newRegistry),
	fx.Provide(service.NewService),
)
