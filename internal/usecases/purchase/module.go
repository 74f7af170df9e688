package purchase

import (
	"log/slog"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/ports/delivery"
	"github.com/admin/tg-bots/stars-bot/internal/ports/kafka"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
	"github.com/admin/tg-bots/stars-bot/internal/ports/session"
	"github.com/admin/tg-bots/stars-bot/internal/ports/storage"
)

// Service сага покупки звёзд: сессия → инвойс → оплата → доставка → леджер
type Service struct {
	Ledger          repository.ILedgerStore
	Sessions        session.IStore
	Gateway         payment.IPaymentGateway
	Delivery        delivery.IDeliveryClient
	TelegramService service.ITelegramService
	AlerterService  service.IAlerterService
	Events          kafka.IEventPublisher // nil - события не публикуются
	Receipts        storage.IS3Client     // nil - чеки не сохраняются
	Config          Config
	Log             *slog.Logger

	locks *userLocks
	now   func() time.Time
}

// New создаёт сагу покупки; events и receipts опциональны
func New(
	ledger repository.ILedgerStore,
	sessions session.IStore,
	gateway payment.IPaymentGateway,
	deliveryClient delivery.IDeliveryClient,
	telegramService service.ITelegramService,
	alerterService service.IAlerterService,
	events kafka.IEventPublisher,
	receipts storage.IS3Client,
	cfg Config,
	log *slog.Logger,
) *Service {
	return &Service{
		Ledger:          ledger,
		Sessions:        sessions,
		Gateway:         gateway,
		Delivery:        deliveryClient,
		TelegramService: telegramService,
		AlerterService:  alerterService,
		Events:          events,
		Receipts:        receipts,
		Config:          cfg,
		Log:             log,
		locks:           newUserLocks(),
		now:             time.Now,
	}
}

var (
	_ service.IBotService       = (*Service)(nil)
	_ service.IPaymentConfirmer = (*Service)(nil)
)
