package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

// HandleCommand роутинг команд; From и Chat проверены на уровне сервиса
func (s *Service) HandleCommand(ctx context.Context, msg *domain.Message) error {
	userID, chatID := msg.From.ID, msg.Chat.ID

	if err := s.Ledger.UpsertUser(ctx, userID, msg.From.Username); err != nil {
		s.Log.Warn("failed to upsert user", "error", err, "user_id", userID)
	}

	command := ParseCommand(*msg.Text)
	switch command {
	case "start":
		s.sendMessageWithKeyboard(ctx, chatID, texts.Start, buyKeyboard())
		return nil
	case "help":
		s.sendMessage(ctx, chatID, texts.Help)
		return nil
	case "my_info":
		return s.HandleMyInfo(ctx, userID, chatID)
	case "buy":
		return s.StartPurchase(ctx, userID, chatID)
	case "cancel":
		return s.Cancel(ctx, userID, chatID)
	default:
		s.sendMessage(ctx, chatID, texts.FormatUnknownCommand(command))
		return nil
	}
}

// HandleMyInfo обрабатывает команду /my_info
func (s *Service) HandleMyInfo(ctx context.Context, userID, chatID int64) error {
	user, err := s.Ledger.GetUser(ctx, userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		user = &domain.User{ID: userID}
	} else if err != nil {
		s.Log.Error("failed to get user for my_info", "error", err, "user_id", userID)
		s.sendMessage(ctx, chatID, texts.ErrorGeneric)
		return domain.WrapBusinessError(err)
	}

	s.sendMessage(ctx, chatID, texts.FormatMyInfo(user.Username, user.TotalStars, user.TotalSpent, domain.FiatCurrency))
	return nil
}

// HandleText свободный текст: количество или username в зависимости от состояния
func (s *Service) HandleText(ctx context.Context, msg *domain.Message) error {
	userID, chatID := msg.From.ID, msg.Chat.ID
	text := strings.TrimSpace(*msg.Text)

	if text == texts.BuyButton || strings.EqualFold(text, "купить") {
		return s.StartPurchase(ctx, userID, chatID)
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if sess.PaymentExpired(s.now()) {
		return s.timeoutLocked(ctx, sess)
	}

	switch sess.State {
	case domain.StateSelectingQuantity:
		return s.provideQuantityLocked(ctx, sess, text)
	case domain.StateAwaitingRecipient:
		return s.provideRecipientLocked(ctx, sess, text)
	case domain.StateIdle:
		s.sendMessageWithKeyboard(ctx, chatID, texts.NoActivePurchase, buyKeyboard())
		return nil
	default:
		s.sendMessage(ctx, chatID, texts.UseButtons)
		return nil
	}
}

// HandleCallback нажатия inline-кнопок
func (s *Service) HandleCallback(ctx context.Context, query *domain.CallbackQuery) error {
	userID := query.From.ID
	chatID := userID
	if query.Message != nil && query.Message.Chat != nil {
		chatID = query.Message.Chat.ID
	}

	data := ""
	if query.Data != nil {
		data = *query.Data
	}

	switch {
	case data == CallbackBuy:
		return s.StartPurchase(ctx, userID, chatID)
	case data == CallbackConfirm:
		return s.ConfirmOrder(ctx, userID, chatID)
	case data == CallbackCancel:
		return s.Cancel(ctx, userID, chatID)
	case data == CallbackCheckPayment:
		return s.CheckPayment(ctx, userID, chatID)
	case strings.HasPrefix(data, CallbackCurrency):
		return s.ChooseCurrency(ctx, userID, chatID, strings.TrimPrefix(data, CallbackCurrency))
	default:
		s.Log.Warn("unknown callback data", "data", data, "user_id", userID)
		return domain.WrapBusinessError(fmt.Errorf("%w: callback %q", domain.ErrUnexpectedEvent, data))
	}
}

// ParseCommand "/buy@stars_bot 100" → "buy"
func ParseCommand(text string) string {
	text = strings.TrimPrefix(strings.TrimSpace(text), "/")

	if idx := strings.Index(text, " "); idx != -1 {
		text = text[:idx]
	}

	if idx := strings.Index(text, "@"); idx != -1 {
		text = text[:idx]
	}

	return strings.ToLower(text)
}
