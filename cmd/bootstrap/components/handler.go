package components

import (
	"admin-alerts/internal/handler"
	"admin-alerts/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewNotificationHandler,
	),
	fx.Invoke(handler.NewRouter),
)
