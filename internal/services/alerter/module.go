package alerter

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/adapters/secondary/alerter"
	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
)

// Service реализует IAlerterService для отправки алертов
type Service struct {
	client *alerter.Client
	log    *slog.Logger
}

// New создаёт сервис алертов. Без клиента алерты только пишутся в лог.
func New(client *alerter.Client, log *slog.Logger) service.IAlerterService {
	return &Service{
		client: client,
		log:    log,
	}
}

// SendAlert отправляет алерт
func (s *Service) SendAlert(ctx context.Context, message string) error {
	if s.client == nil {
		s.log.Warn("alert (alerter disabled)", "message", message)
		return nil
	}

	if err := s.client.SendAlert(ctx, message); err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	return nil
}
