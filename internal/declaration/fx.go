package declaration

import (
	"github.com/smallbiznis/taxdesk/internal/declaration/repository"
	"github.com/smallbiznis/taxdesk/internal/declaration/service"
	"go.uber.org/fx"
)

var Module = fx.Module("declaration",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
