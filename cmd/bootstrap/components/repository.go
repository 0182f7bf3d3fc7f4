package components

import (
	"admin-alerts/internal/infra/readstore"
	repo_impl "admin-alerts/internal/infra/repository"
	"admin-alerts/internal/infra/stateupdater"
	"admin-alerts/internal/usecase/commands"
	"admin-alerts/internal/usecase/queries"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewNotificationRepository,
			fx.As(new(commands.NotificationRepository)),
		),
		fx.Annotate(
			stateupdater.NewPostgresUpdater,
			fx.As(new(commands.StateUpdater)),
		),
		// Read-side repository for queries
		fx.Annotate(
			readstore.NewNotificationReadStore,
			fx.As(new(queries.NotificationReadStore)),
		),
	),
)
