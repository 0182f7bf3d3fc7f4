package components

import (
	"log/slog"

	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/usecase/commands"
	"admin-alerts/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewNotificationCommands,
		NewDispatcher,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewNotificationQueries,
	),
)

func NewDispatcher(
	notifications commands.NotificationRepository,
	dedup commands.DedupGate,
	state commands.StateUpdater,
	mail commands.MailQueue,
	cfg config.Config,
	clk clock.Clock,
	logger *slog.Logger,
) *commands.Dispatcher {
	return commands.NewEventDispatcher(notifications, dedup, state, mail, cfg.Pipeline, clk, logger)
}
