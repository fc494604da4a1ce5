package order

import (
	"github.com/smallbiznis/taxdesk/internal/order/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("order",
	fx.Provide(repository.NewRepository),
)
