package telegram

import (
	"context"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// HandleUpdate Основной метод для обработки всех типов обновлений
func (s *Service) HandleUpdate(ctx context.Context, update *domain.Update) error {
	if update == nil {
		return fmt.Errorf("update is nil")
	}
	if s.BotService == nil {
		return fmt.Errorf("bot service is not configured")
	}

	var err error
	switch {
	case update.Message != nil:
		err = s.HandleMessage(ctx, update.Message, update.UpdateID)
	case update.CallbackQuery != nil:
		err = s.HandleCallbackQuery(ctx, update.CallbackQuery, update.UpdateID)
	default:
		return nil
	}

	// бизнес-ошибки уже залогированы и показаны пользователю
	if domain.IsBusinessError(err) {
		s.Log.Debug("update rejected by purchase flow",
			"update_id", update.UpdateID,
			"reason", err.Error(),
		)
		return nil
	}
	return err
}

// HandleMessage обрабатывает входящее сообщение - роутинг в usecase
func (s *Service) HandleMessage(ctx context.Context, message *domain.Message, updateID int64) error {
	if message.From == nil || message.From.IsBot {
		s.Log.Debug("ignoring message from bot", "update_id", updateID)
		return nil
	}

	if message.Chat == nil || message.Chat.Type != "private" {
		s.Log.Warn("ignoring message from group/chat", "update_id", updateID)
		return nil
	}

	if message.Text == nil {
		return nil
	}

	if message.IsCommand() || IsCommand(*message.Text) {
		return s.BotService.HandleCommand(ctx, message)
	}
	return s.BotService.HandleText(ctx, message)
}

// HandleCallbackQuery нажатие inline-кнопки; callback подтверждается всегда, чтобы у клиента пропали «часики»
func (s *Service) HandleCallbackQuery(ctx context.Context, query *domain.CallbackQuery, updateID int64) error {
	if query.From == nil || query.From.IsBot {
		s.Log.Debug("ignoring callback from bot", "update_id", updateID)
		return nil
	}

	defer func() {
		if err := s.AnswerCallbackQuery(context.WithoutCancel(ctx), query.ID, "", false); err != nil {
			s.Log.Debug("callback query not answered", "error", err, "callback_id", query.ID)
		}
	}()

	return s.BotService.HandleCallback(ctx, query)
}

func IsCommand(text string) bool {
	return len(text) > 0 && text[0] == '/'
}
