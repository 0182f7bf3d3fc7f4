package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB/broker endpoints), security settings
// - default: Values common across all environments (windows, delays, retry budgets), standard settings
// -----------------------------------------------------------------------------

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	NATS     NATSConfig
	SMTP     SMTPConfig
	CORS     CORSConfig
	Log      LogConfig
	Pipeline PipelineConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type RedisConfig struct {
	// Empty Addr switches the dedup gate to the in-process implementation.
	Addr     string `envconfig:"REDIS_ADDR" default:""`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

type NATSConfig struct {
	URL               string        `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	Subjects          []string      `envconfig:"NATS_SUBJECTS" default:"events.orders,events.payments,events.inventory,events.activity,events.system"`
	QueueGroup        string        `envconfig:"NATS_QUEUE_GROUP" default:"alert-pipeline"`
	DeadLetterSubject string        `envconfig:"NATS_DEAD_LETTER_SUBJECT" default:"events.dead"`
	MaxRedeliveries   int           `envconfig:"NATS_MAX_REDELIVERIES" default:"5"`
	RedeliveryBase    time.Duration `envconfig:"NATS_REDELIVERY_BASE" default:"1s"`
}

type SMTPConfig struct {
	Host     string `envconfig:"SMTP_HOST" default:""`
	Port     string `envconfig:"SMTP_PORT" default:"587"`
	Username string `envconfig:"SMTP_USERNAME" default:""`
	Password string `envconfig:"SMTP_PASSWORD" default:""`
	From     string `envconfig:"SMTP_FROM" default:""`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// PipelineConfig is read once at process start and passed by reference into every
// pipeline component; handlers never read environment state directly.
type PipelineConfig struct {
	AdminRecipient string `envconfig:"ADMIN_RECIPIENT" default:"admin@example.com"`

	DedupWindow time.Duration `envconfig:"DEDUP_WINDOW" default:"30m"`
	// Per-kind dedup policy; kinds absent from the map are never deduplicated.
	DedupKinds map[string]bool `envconfig:"DEDUP_KINDS" default:"system_alert:true,stock_alert:true,user_activity:true"`

	MaxEmailAttempts    int           `envconfig:"MAX_EMAIL_ATTEMPTS" default:"3"`
	EmailAttemptTimeout time.Duration `envconfig:"EMAIL_ATTEMPT_TIMEOUT" default:"10s"`
	EmailRetryBase      time.Duration `envconfig:"EMAIL_RETRY_BASE" default:"2s"`
	QueueWorkers        int           `envconfig:"QUEUE_WORKERS" default:"4"`

	DelayHigh   time.Duration `envconfig:"DELAY_HIGH" default:"10s"`
	DelayMedium time.Duration `envconfig:"DELAY_MEDIUM" default:"45s"`
	DelayLow    time.Duration `envconfig:"DELAY_LOW" default:"3m"`

	EmailNotificationsEnabled bool `envconfig:"EMAIL_NOTIFICATIONS_ENABLED" default:"true"`
	StockEmailAlertsEnabled   bool `envconfig:"STOCK_EMAIL_ALERTS_ENABLED" default:"true"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889",
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433",
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error",
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Pipeline: PipelineConfig{
			AdminRecipient: "admin@example.com",
			DedupWindow:    30 * time.Minute,
			DedupKinds: map[string]bool{
				"system_alert":  true,
				"stock_alert":   true,
				"user_activity": true,
			},
			MaxEmailAttempts:          3,
			EmailAttemptTimeout:       time.Second,
			EmailRetryBase:            time.Millisecond,
			QueueWorkers:              1,
			DelayHigh:                 10 * time.Second,
			DelayMedium:               45 * time.Second,
			DelayLow:                  3 * time.Minute,
			EmailNotificationsEnabled: true,
			StockEmailAlertsEnabled:   true,
		},
	}
}
