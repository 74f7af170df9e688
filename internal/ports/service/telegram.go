package service

import (
	"context"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// ITelegramService интерфейс для отправки сообщений через Telegram
type ITelegramService interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID string, text string, showAlert bool) error
}

// IBotService обработчик входящих апдейтов бота
type IBotService interface {
	HandleCommand(ctx context.Context, msg *domain.Message) error
	HandleText(ctx context.Context, msg *domain.Message) error
	HandleCallback(ctx context.Context, query *domain.CallbackQuery) error
}

// IPaymentConfirmer подтверждение оплаты инвойса, вызывается из вебхука, поллера и кнопки проверки
type IPaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, invoiceID string, source domain.ConfirmationSource) error
}
