package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// UpdateHandler функция для обработки обновлений от Telegram
type UpdateHandler func(ctx context.Context, update *domain.Update) error

// Poller реализует long polling для получения обновлений от Telegram
type Poller struct {
	client       *Client
	timeout      int
	handler      UpdateHandler
	lastUpdateID int64
	log          *slog.Logger
	httpClient   *http.Client // отдельный HTTP клиент с увеличенным таймаутом для polling
}

func NewPoller(client *Client, config *Config, handler UpdateHandler, log *slog.Logger) *Poller {
	pollingTimeout := config.PollingTimeout
	if pollingTimeout <= 0 {
		pollingTimeout = 30
	}

	return &Poller{
		client:  client,
		timeout: pollingTimeout,
		handler: handler,
		log:     log,
		// HTTP таймаут = polling timeout + запас
		httpClient: &http.Client{
			Timeout: time.Duration(pollingTimeout+10) * time.Second,
		},
	}
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// Start крутит long polling до отмены контекста
func (p *Poller) Start(ctx context.Context) error {
	p.log.Info("starting telegram polling", "timeout", p.timeout)

	for {
		select {
		case <-ctx.Done():
			p.log.Info("polling stopped")
			return ctx.Err()
		default:
		}

		updates, err := p.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.log.Error("failed to get updates", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= p.lastUpdateID {
				p.lastUpdateID = update.UpdateID + 1
			}

			if err := p.handler(ctx, update); err != nil {
				p.log.Error("failed to handle update",
					"error", err,
					"update_id", update.UpdateID,
				)
			}
		}
	}
}

func (p *Poller) getUpdates(ctx context.Context) ([]*domain.Update, error) {
	req := getUpdatesRequest{
		Offset:         p.lastUpdateID,
		Timeout:        p.timeout,
		AllowedUpdates: []string{"message", "callback_query"},
	}

	var updates []*domain.Update
	err := p.client.callWith(ctx, p.httpClient, "getUpdates", req, &updates)
	if err != nil {
		// 409 - активен webhook или второй экземпляр бота, пробуем снова на следующей итерации
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
			p.log.Warn("telegram API conflict - another bot instance or webhook is active",
				"description", apiErr.Description,
			)
			return nil, nil
		}
		return nil, fmt.Errorf("getUpdates: %w", err)
	}
	return updates, nil
}
