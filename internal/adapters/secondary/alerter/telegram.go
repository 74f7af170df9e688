package alerter

import (
	"context"
	"errors"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/telegram"
)

//согл, что чистота нарушена, но тут выбор в пользу делегирования ответственности другому адаптеру

// Client клиент для отправки алертов через Telegram
type Client struct {
	telegramClient  *telegram.Client
	chatID          int64
	messageThreadID *int64
	adminIDs        []int64
	log             *slog.Logger
}

// NewClient создаёт новый клиент для отправки алертов; fallbackToken - токен основного бота
func NewClient(cfg *Config, fallbackToken string, log *slog.Logger) *Client {
	if !cfg.Enabled() {
		return nil
	}

	token := cfg.BotToken
	if token == "" {
		token = fallbackToken
	}

	return &Client{
		telegramClient:  telegram.NewClient(token, log),
		chatID:          cfg.ChatID,
		messageThreadID: cfg.MessageThreadID,
		adminIDs:        cfg.AdminIDs,
		log:             log,
	}
}

// SendAlert отправляет алерт в группу (или топик форума) и в личку админам
func (c *Client) SendAlert(ctx context.Context, message string) error {
	if c == nil || c.telegramClient == nil {
		return fmt.Errorf("alerter client is not initialized")
	}

	var errs []error
	if c.chatID != 0 {
		if err := c.send(ctx, c.chatID, message, c.messageThreadID); err != nil {
			errs = append(errs, err)
		}
	}
	for _, adminID := range c.adminIDs {
		if err := c.send(ctx, adminID, message, nil); err != nil {
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		c.log.Warn("failed to send alert",
			"error", err,
			"chat_id", c.chatID,
			"message_thread_id", c.messageThreadID,
		)
		return fmt.Errorf("failed to send alert: %w", err)
	}

	c.log.Debug("alert sent successfully",
		"chat_id", c.chatID,
		"admins", len(c.adminIDs),
	)
	return nil
}

func (c *Client) send(ctx context.Context, chatID int64, text string, threadID *int64) error {
	_, err := c.telegramClient.SendMessageWithRequest(ctx, telegram.SendMessageRequest{
		ChatID:          chatID,
		MessageThreadID: threadID,
		Text:            text,
		ParseMode:       "HTML",
	})
	return err
}
