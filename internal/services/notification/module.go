package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/admin/tg-bots/stars-bot/internal/ports/service"
)

// Service входящие уведомления платёжного шлюза → подтверждение оплаты
type Service struct {
	Verifier  payment.INotificationVerifier
	Confirmer service.IPaymentConfirmer
	Log       *slog.Logger
}

func New(verifier payment.INotificationVerifier, confirmer service.IPaymentConfirmer, log *slog.Logger) *Service {
	return &Service{
		Verifier:  verifier,
		Confirmer: confirmer,
		Log:       log,
	}
}

// HandlePaymentNotification подпись проверяется до разбора тела
func (s *Service) HandlePaymentNotification(ctx context.Context, body []byte, signature string) error {
	if err := s.Verifier.Verify(body, signature); err != nil {
		s.Log.Warn("payment notification rejected", "error", err)
		return err
	}

	n, err := s.Verifier.Parse(body)
	if err != nil {
		s.Log.Warn("malformed payment notification", "error", err)
		return err
	}
	if n == nil {
		s.Log.Debug("payment notification ignored")
		return nil
	}
	if n.Status != domain.InvoiceStatusPaid {
		s.Log.Debug("non-paid invoice notification ignored", "invoice_id", n.InvoiceID, "status", n.Status)
		return nil
	}

	if err := s.Confirmer.ConfirmPayment(ctx, n.InvoiceID, domain.ConfirmationSourceWebhook); err != nil {
		return fmt.Errorf("confirm payment %s: %w", n.InvoiceID, err)
	}
	return nil
}
