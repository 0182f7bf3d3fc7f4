package bootstrap

import (
	"context"
	"log/slog"

	"admin-alerts/internal/domain/notification"
	"admin-alerts/internal/infra/mailer"
	"admin-alerts/internal/pkg/clock"
	"admin-alerts/internal/pkg/config"
	"admin-alerts/internal/queue"
	"admin-alerts/internal/usecase/commands"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/fx"
)

var QueueModule = fx.Module("queue",
	fx.Provide(
		NewMetricsRegistry,
		NewMailQueue,
		func(q *queue.Queue) commands.MailQueue { return q },
	),
	fx.Invoke(wireFailureAlerts),
)

func NewMetricsRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func NewMailQueue(lc fx.Lifecycle, cfg config.Config, clk clock.Clock, logger *slog.Logger, registry *prometheus.Registry) *queue.Queue {
	q := queue.New(queue.Options{
		Transport:          mailer.NewSMTPMailer(cfg.SMTP),
		Clock:              clk,
		Gate:               sendGate(cfg.Pipeline),
		Workers:            cfg.Pipeline.QueueWorkers,
		AttemptTimeout:     cfg.Pipeline.EmailAttemptTimeout,
		DefaultMaxAttempts: cfg.Pipeline.MaxEmailAttempts,
		RetryBase:          cfg.Pipeline.EmailRetryBase,
		Logger:             logger,
		Metrics:            queue.NewMetrics(registry),
	})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			q.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			q.Stop()
			return nil
		},
	})

	return q
}

// sendGate re-evaluates the email feature flags at send time, after any
// severity delay has elapsed.
func sendGate(cfg config.PipelineConfig) queue.SendGate {
	return func(job queue.EmailJob) bool {
		if !cfg.EmailNotificationsEnabled {
			return false
		}
		if notification.IsInventoryType(job.NotificationType) && !cfg.StockEmailAlertsEnabled {
			return false
		}
		return true
	}
}

// wireFailureAlerts connects permanent delivery failures back into the
// dispatcher, which records them as alerts of their own.
func wireFailureAlerts(q *queue.Queue, dispatcher *commands.Dispatcher) {
	q.OnFailure(dispatcher.HandleEmailFailure)
}
