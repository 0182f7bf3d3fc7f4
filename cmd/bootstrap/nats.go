package bootstrap

import (
	"context"
	"log/slog"

	"admin-alerts/internal/pkg/config"
	natstransport "admin-alerts/internal/transport/nats"
	"admin-alerts/internal/usecase/commands"

	"github.com/nats-io/nats.go"
	"go.uber.org/fx"
)

var NATSModule = fx.Module("nats",
	fx.Provide(
		NewNATSConn,
		NewConsumer,
	),
	fx.Invoke(startConsumer),
)

func NewNATSConn(lc fx.Lifecycle, cfg config.Config, logger *slog.Logger) (*nats.Conn, error) {
	conn, cleanup, err := natstransport.Connect(cfg.NATS, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return conn, nil
}

func NewConsumer(conn *nats.Conn, dispatcher *commands.Dispatcher, cfg config.Config, logger *slog.Logger) *natstransport.Consumer {
	return natstransport.NewConsumer(conn, dispatcher, cfg.NATS, logger)
}

func startConsumer(lc fx.Lifecycle, consumer *natstransport.Consumer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return consumer.Start(context.WithoutCancel(ctx))
		},
		OnStop: func(_ context.Context) error {
			consumer.Stop()
			return nil
		},
	})
}
