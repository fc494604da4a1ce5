package revenue

import (
	"github.com/smallbiznis/taxdesk/internal/revenue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("revenue",
	fx.Provide(service.NewAggregator),
)
