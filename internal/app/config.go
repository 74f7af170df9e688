package app

import (
	"fmt"

	server "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http"
	adminController "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http/controllers/admin"
	alerterAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/alerter"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/cryptobot"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/fragment"
	kafkaAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/s3"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/stars-bot/internal/pkg/logger"
	"github.com/admin/tg-bots/stars-bot/internal/services/jobs"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Postgres  *pg.Config             `envconfig:"POSTGRES"`
	Redis     *redisAdapter.Config   `envconfig:"REDIS"`
	Log       *logger.Config         `envconfig:"LOG"`
	Server    *server.Config         `envconfig:"APISERVER"`
	Telegram  *telegram.Config       `envconfig:"TELEGRAM"`
	CryptoPay *cryptobot.Config      `envconfig:"CRYPTOPAY"`
	Fragment  *fragment.Config       `envconfig:"FRAGMENT"`
	Purchase  purchase.Config        `envconfig:"PURCHASE"`
	Kafka     *kafkaAdapter.Config   `envconfig:"KAFKA"`
	S3        *s3Adapter.Config      `envconfig:"S3"`
	Alerter   *alerterAdapter.Config `envconfig:"ALERTER"`
	Admin     adminController.Config `envconfig:"ADMIN"`
	Jobs      jobs.Config            `envconfig:"JOBS"`
}

// NewEnvConfig читает .env (если есть) и переменные окружения с префиксом envPrefix
func NewEnvConfig(envPrefix string) (*Config, error) {
	cfg := &Config{}

	_ = godotenv.Load("deployments/local/.env")

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Purchase.Validate(); err != nil {
		return nil, fmt.Errorf("invalid purchase config: %w", err)
	}

	if cfg.Telegram.IsWebhookEnabled() && cfg.Telegram.WebhookURL == "" {
		return nil, fmt.Errorf("TELEGRAM_WEBHOOK_URL is required when TELEGRAM_USE_WEBHOOK is set")
	}

	return cfg, nil
}
