package bootstrap

import (
	"admin-alerts/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	DedupModule,
	QueueModule,
	NATSModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
)
