package purchase

import (
	"context"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

const (
	CallbackBuy          = "buy"
	CallbackConfirm      = "order:confirm"
	CallbackCancel       = "order:cancel"
	CallbackCurrency     = "currency:"
	CallbackCheckPayment = "payment:check"
)

// sendMessage ошибка отправки логируется и не прерывает сагу: состояние уже сохранено
func (s *Service) sendMessage(ctx context.Context, chatID int64, text string) {
	if err := s.TelegramService.SendMessage(ctx, chatID, text); err != nil {
		s.Log.Warn("failed to send message", "error", err, "chat_id", chatID)
	}
}

func (s *Service) sendMessageWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *domain.InlineKeyboardMarkup) {
	if err := s.TelegramService.SendMessageWithKeyboard(ctx, chatID, text, keyboard); err != nil {
		s.Log.Warn("failed to send message with keyboard", "error", err, "chat_id", chatID)
	}
}

func (s *Service) alert(ctx context.Context, message string) {
	if s.AlerterService == nil {
		return
	}
	if err := s.AlerterService.SendAlert(ctx, message); err != nil {
		s.Log.Error("failed to send alert", "error", err)
	}
}

func buyKeyboard() *domain.InlineKeyboardMarkup {
	return &domain.InlineKeyboardMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{
		{{Text: texts.BuyButton, CallbackData: CallbackBuy}},
	}}
}

func confirmKeyboard() *domain.InlineKeyboardMarkup {
	return &domain.InlineKeyboardMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{
		{
			{Text: texts.ConfirmButton, CallbackData: CallbackConfirm},
			{Text: texts.CancelButton, CallbackData: CallbackCancel},
		},
	}}
}

func currencyKeyboard(assets []string) *domain.InlineKeyboardMarkup {
	row := make([]domain.InlineKeyboardButton, 0, len(assets))
	for _, a := range assets {
		row = append(row, domain.InlineKeyboardButton{Text: a, CallbackData: CallbackCurrency + a})
	}
	return &domain.InlineKeyboardMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{
		row,
		{{Text: texts.CancelButton, CallbackData: CallbackCancel}},
	}}
}

func paymentKeyboard(payURL string) *domain.InlineKeyboardMarkup {
	return &domain.InlineKeyboardMarkup{InlineKeyboard: [][]domain.InlineKeyboardButton{
		{{Text: texts.PayButton, URL: payURL}},
		{{Text: texts.CheckPaymentButton, CallbackData: CallbackCheckPayment}},
		{{Text: texts.CancelButton, CallbackData: CallbackCancel}},
	}}
}

func invoicePayload(userID, stars int64) string {
	return fmt.Sprintf(`{"user_id":%d,"stars":%d}`, userID, stars)
}
