package payment

import "github.com/admin/tg-bots/stars-bot/internal/domain"

// INotificationVerifier проверка подлинности и разбор входящих уведомлений шлюза
type INotificationVerifier interface {
	// Verify domain.ErrSignatureMismatch если подпись не совпала
	Verify(body []byte, signature string) error
	// Parse nil без ошибки для уведомлений, не относящихся к оплате
	Parse(body []byte) (*domain.PaymentNotification, error)
}
