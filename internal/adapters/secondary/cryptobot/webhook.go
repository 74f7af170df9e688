package cryptobot

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

const (
	SignatureHeader       = "crypto-pay-api-signature"
	updateTypeInvoicePaid = "invoice_paid"
)

// Sign подпись тела вебхука: hex(HMAC-SHA256(key=SHA256(token), body))
func Sign(token string, body []byte) string {
	secret := sha256.Sum256([]byte(token))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнение за постоянное время
func VerifySignature(token string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	expected := Sign(token, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ParseUpdate разбирает тело вебхука. Неизвестные типы апдейтов возвращают nil без ошибки.
func ParseUpdate(body []byte) (*domain.PaymentNotification, error) {
	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("%w: malformed update: %v", domain.ErrInvalidInput, err)
	}
	if update.UpdateType != updateTypeInvoicePaid {
		return nil, nil
	}

	var inv UpdateInvoice
	if err := json.Unmarshal(update.Payload, &inv); err != nil {
		return nil, fmt.Errorf("%w: malformed invoice: %v", domain.ErrInvalidInput, err)
	}
	if inv.InvoiceID == 0 {
		return nil, fmt.Errorf("%w: invoice_id is missing", domain.ErrInvalidInput)
	}

	return &domain.PaymentNotification{
		InvoiceID: strconv.FormatInt(inv.InvoiceID, 10),
		Status:    domain.InvoiceStatus(inv.Status),
	}, nil
}

// WebhookVerifier проверка и разбор вебхуков CryptoBot для сервиса уведомлений
type WebhookVerifier struct {
	token string
}

func NewWebhookVerifier(token string) *WebhookVerifier {
	return &WebhookVerifier{token: token}
}

func (v *WebhookVerifier) Verify(body []byte, signature string) error {
	if !VerifySignature(v.token, body, signature) {
		return domain.ErrSignatureMismatch
	}
	return nil
}

func (v *WebhookVerifier) Parse(body []byte) (*domain.PaymentNotification, error) {
	return ParseUpdate(body)
}
