package app

import (
	sessionRepo "github.com/admin/tg-bots/stars-bot/internal/repository/session"
	telegramService "github.com/admin/tg-bots/stars-bot/internal/services/telegram"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase"
)

// initPurchase создаёт сагу покупки и подключает её к telegram service
func (a *App) initPurchase(
	store *storageLayer,
	tgService *telegramService.Service,
	externalServices *externalServices,
) *purchase.Service {
	sessions := sessionRepo.New(store.Cache, a.Cfg.Purchase.SessionTTL, a.Log)

	purchaseUseCase := purchase.New(
		store.Ledger,
		sessions,
		externalServices.Gateway,
		externalServices.Delivery,
		tgService,
		externalServices.Alerter,
		externalServices.events(), // может быть nil
		externalServices.Receipts, // может быть nil
		a.Cfg.Purchase,
		a.Log,
	)

	tgService.SetBotService(purchaseUseCase)

	a.Log.Info("purchase flow initialized",
		"min_stars", a.Cfg.Purchase.MinStars,
		"max_stars", a.Cfg.Purchase.MaxStars,
		"star_price_rub", a.Cfg.Purchase.StarPrice.String(),
		"assets", a.Cfg.Purchase.Assets,
	)
	return purchaseUseCase
}
