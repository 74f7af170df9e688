package telegram

import (
	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
	"github.com/admin/tg-bots/stars-bot/internal/ports/telegram"
)

type Service struct {
	BotService     service.IBotService // nil до SetBotService: сага зависит от отправителя
	TelegramClient telegram.IClient
	Log            *slog.Logger
}

func New(telegramClient telegram.IClient, log *slog.Logger) *Service {
	return &Service{
		TelegramClient: telegramClient,
		Log:            log,
	}
}

// SetBotService устанавливает обработчик апдейтов после создания саги
func (s *Service) SetBotService(botService service.IBotService) {
	s.BotService = botService
}

var _ service.ITelegramService = (*Service)(nil)
