package app

import (
	"context"
	"fmt"
	"net/http"

	server "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http"
	adminController "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http/controllers/admin"
	cryptopayController "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http/controllers/cryptopay"
	healthcheckController "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http/controllers/healthcheck"
	telegramController "github.com/admin/tg-bots/stars-bot/internal/adapters/primary/http/controllers/telegram"
	alerterAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/alerter"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/cryptobot"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/fragment"
	kafkaAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/kafka"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/inmemory"
	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/pg"
	redisAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/redis"
	s3Adapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/storage/s3"
	tgAdapter "github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/telegram"
	"github.com/admin/tg-bots/stars-bot/internal/ports/cache"
	"github.com/admin/tg-bots/stars-bot/internal/ports/delivery"
	"github.com/admin/tg-bots/stars-bot/internal/ports/kafka"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
	"github.com/admin/tg-bots/stars-bot/internal/ports/storage"
	ledgerRepo "github.com/admin/tg-bots/stars-bot/internal/repository/ledger"
	alerterService "github.com/admin/tg-bots/stars-bot/internal/services/alerter"
	jobScheduler "github.com/admin/tg-bots/stars-bot/internal/services/jobs"
	"github.com/admin/tg-bots/stars-bot/internal/services/notification"
	telegramService "github.com/admin/tg-bots/stars-bot/internal/services/telegram"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase"
	"github.com/jmoiron/sqlx"
)

type Dependencies struct {
	DB             *sqlx.DB // nil - леджер в памяти
	HTTPServer     *http.Server
	TelegramClient *tgAdapter.Client
	TelegramPoller *tgAdapter.Poller
	KafkaProducer  *kafkaAdapter.Producer
	Cache          cache.Cache
	JobScheduler   *jobScheduler.Scheduler
}

// initDependencies инициализирует все зависимости приложения
func (a *App) initDependencies(ctx context.Context) (*Dependencies, error) {
	store, err := a.initStorage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	tgClient, tgService := a.initTelegram(ctx)
	externalServices, err := a.initExternalServices()
	if err != nil {
		return nil, fmt.Errorf("failed to init external services: %w", err)
	}

	purchaseUseCase := a.initPurchase(store, tgService, externalServices)

	httpServer := a.initHTTP(store, tgService, purchaseUseCase, externalServices)
	poller, err := a.initTelegramMode(ctx, tgService, tgClient)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram mode: %w", err)
	}

	scheduler := a.initJobScheduler(store.Ledger, externalServices, purchaseUseCase)

	return &Dependencies{
		DB:             store.DB,
		HTTPServer:     httpServer,
		TelegramClient: tgClient,
		TelegramPoller: poller,
		KafkaProducer:  externalServices.Producer,
		Cache:          store.Cache,
		JobScheduler:   scheduler,
	}, nil
}

// storageLayer леджер, кэш сессий и их проверки готовности
type storageLayer struct {
	DB      *sqlx.DB
	Ledger  repository.ILedgerStore
	Cache   cache.Cache
	Pingers map[string]healthcheckController.Pinger
}

// initStorage поднимает Postgres и Redis; без хоста используется хранилище в памяти
func (a *App) initStorage(ctx context.Context) (*storageLayer, error) {
	store := &storageLayer{Pingers: make(map[string]healthcheckController.Pinger)}

	if a.Cfg.Postgres.Enabled() {
		db, err := a.initPostgres(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to init postgres: %w", err)
		}
		persistenceLayer := pg.NewDB(db)
		store.DB = db
		store.Ledger = ledgerRepo.New(persistenceLayer, a.Log)
		store.Pingers["postgres"] = persistenceLayer
	} else {
		a.Log.Warn("postgres is not configured, using in-memory ledger - data will be lost on restart")
		store.Ledger = inmemory.NewLedger()
	}

	if a.Cfg.Redis.Enabled() {
		redisClient, err := a.Cfg.Redis.NewConnection()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		client := redisAdapter.NewClient(redisClient, a.Cfg.Redis.KeyPrefix)
		store.Cache = client
		store.Pingers["redis"] = client
		a.Log.Info("redis connected successfully")
	} else {
		a.Log.Warn("redis is not configured, sessions are kept in memory")
		store.Cache = inmemory.NewCache()
	}

	return store, nil
}

// initTelegram создаёт клиент бота и сервис обработки апдейтов
func (a *App) initTelegram(ctx context.Context) (*tgAdapter.Client, *telegramService.Service) {
	client := tgAdapter.NewClient(a.Cfg.Telegram.BotToken, a.Log)

	if err := a.registerBotCommands(ctx, client); err != nil {
		a.Log.Warn("failed to register bot commands", "error", err)
	}

	return client, telegramService.New(client, a.Log)
}

// externalServices содержит внешние сервисы; Producer и Receipts опциональны
type externalServices struct {
	Gateway  *cryptobot.Client
	Delivery delivery.IDeliveryClient
	Producer *kafkaAdapter.Producer
	Receipts storage.IS3Client
	Alerter  service.IAlerterService
}

// initExternalServices инициализирует CryptoBot, Fragment, Kafka, S3 и алертер
func (a *App) initExternalServices() (*externalServices, error) {
	services := &externalServices{
		Gateway:  cryptobot.NewClient(a.Cfg.CryptoPay, a.Log),
		Delivery: fragment.NewClient(a.Cfg.Fragment, a.Log),
	}

	alerterClient := alerterAdapter.NewClient(a.Cfg.Alerter, a.Cfg.Telegram.BotToken, a.Log)
	if alerterClient == nil {
		a.Log.Warn("alerter is not configured, alerts go to log only")
	}
	services.Alerter = alerterService.New(alerterClient, a.Log)

	// Kafka - опциональный
	if a.Cfg.Kafka.Enabled() {
		producer, err := kafkaAdapter.NewProducer(a.Cfg.Kafka, a.Log)
		if err != nil {
			a.Log.Warn("failed to create kafka producer, outcomes will not be published", "error", err)
		} else {
			services.Producer = producer
		}
	}

	// S3 - опциональный, но если задан, должен работать
	if a.Cfg.S3.Enabled() {
		minioClient, err := a.Cfg.S3.NewClient()
		if err != nil {
			return nil, fmt.Errorf("failed to init s3: %w", err)
		}
		services.Receipts = s3Adapter.NewClient(minioClient, a.Cfg.S3.Bucket, a.Log)
		a.Log.Info("s3 receipts storage connected", "bucket", a.Cfg.S3.Bucket)
	}

	return services, nil
}

// events возвращает публикатор событий или nil-интерфейс, если Kafka выключена
func (s *externalServices) events() kafka.IEventPublisher {
	if s.Producer == nil {
		return nil
	}
	return s.Producer
}

// initHTTP инициализирует HTTP сервер и контроллеры
func (a *App) initHTTP(
	store *storageLayer,
	tgService *telegramService.Service,
	confirmer service.IPaymentConfirmer,
	externalServices *externalServices,
) *http.Server {
	var verifier payment.INotificationVerifier = cryptobot.NewWebhookVerifier(a.Cfg.CryptoPay.APIToken)
	notifications := notification.New(verifier, confirmer, a.Log)

	controllers := []server.Controller{
		healthcheckController.New(store.Pingers, a.Log),
		telegramController.New(tgService, a.Cfg.Telegram.WebhookSecret, a.Log),
		cryptopayController.New(notifications, a.Log),
		adminController.New(store.Ledger, externalServices.Receipts, a.Cfg.Admin.Token, a.Log),
	}

	return server.NewHTTPServer(a.Cfg.Server, a.Log, controllers...)
}

// initTelegramMode инициализирует режим работы Telegram (webhook или polling)
func (a *App) initTelegramMode(
	ctx context.Context,
	tgService *telegramService.Service,
	client *tgAdapter.Client,
) (*tgAdapter.Poller, error) {
	a.Log.Info("telegram configuration",
		"use_webhook", a.Cfg.Telegram.IsWebhookEnabled(),
		"webhook_url", a.Cfg.Telegram.WebhookURL,
	)

	if a.Cfg.Telegram.IsWebhookEnabled() {
		if err := a.setupWebhook(ctx, client); err != nil {
			return nil, fmt.Errorf("failed to setup webhook: %w", err)
		}
		return nil, nil // webhook режим, poller не нужен
	}

	a.Log.Warn("polling mode enabled - this should only be used for local development")
	return tgAdapter.NewPoller(client, a.Cfg.Telegram, tgService.HandleUpdate, a.Log), nil
}

// initJobScheduler регистрирует поллер платежей, закрытие просроченных сессий и обход зависших оплат
func (a *App) initJobScheduler(
	ledger repository.ILedgerStore,
	externalServices *externalServices,
	purchaseUseCase *purchase.Service,
) *jobScheduler.Scheduler {
	if !a.Cfg.Jobs.Enabled {
		a.Log.Info("background jobs disabled")
		return nil
	}

	scheduler := jobScheduler.NewScheduler(a.Log, externalServices.Alerter, a.Cfg.Jobs.RetryDelays)

	scheduler.Register(jobScheduler.NewPaymentPoller(ledger, externalServices.Gateway, purchaseUseCase, &a.Cfg.Jobs, a.Log))
	a.Log.Info("payment poller job registered", "interval", a.Cfg.Jobs.PollInterval)

	scheduler.Register(jobScheduler.NewSessionExpirer(ledger, purchaseUseCase, a.Cfg.Purchase.PaymentWindow, &a.Cfg.Jobs, a.Log))
	a.Log.Info("session expirer job registered", "interval", a.Cfg.Jobs.ExpireInterval)

	scheduler.Register(jobScheduler.NewPaidSweeper(ledger, purchaseUseCase, &a.Cfg.Jobs, a.Log))
	a.Log.Info("paid resumer job registered", "interval", a.Cfg.Jobs.ResumeInterval)

	return scheduler
}

// setupWebhook устанавливает webhook бота
func (a *App) setupWebhook(ctx context.Context, client *tgAdapter.Client) error {
	webhookURL := fmt.Sprintf("%s/webhook", a.Cfg.Telegram.WebhookURL)

	if err := client.SetWebhook(ctx, webhookURL, a.Cfg.Telegram.WebhookSecret); err != nil {
		a.Log.Error("failed to set webhook", "error", err, "webhook_url", webhookURL)
		return err
	}

	a.Log.Info("webhook set successfully", "webhook_url", webhookURL)
	return nil
}

// registerBotCommands регистрирует команды бота в Telegram
func (a *App) registerBotCommands(ctx context.Context, client *tgAdapter.Client) error {
	commands := []tgAdapter.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "buy", Description: "Купить звёзды"},
		{Command: "cancel", Description: "Отменить покупку"},
		{Command: "my_info", Description: "Мои покупки"},
		{Command: "help", Description: "Показать справку"},
	}

	return client.SetMyCommands(ctx, commands)
}

// initPostgres инициализирует подключение к PostgreSQL и запускает миграции
func (a *App) initPostgres(ctx context.Context) (*sqlx.DB, error) {
	db, err := a.Cfg.Postgres.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	a.Log.Info("postgres connected successfully")

	if err := pg.RunMigrations(ctx, db, a.Log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}
