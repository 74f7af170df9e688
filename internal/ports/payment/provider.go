package payment

import (
	"context"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// IPaymentGateway платёжный шлюз (CryptoBot).
// Сага зависит только от этого интерфейса; сетевые ошибки и не-успешные ответы
// оборачиваются в domain.ErrGatewayUnavailable.
type IPaymentGateway interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*domain.Invoice, error)
	GetInvoiceStatus(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error)
	// Refund возвращает оплату по инвойсу плательщику
	Refund(ctx context.Context, invoiceID string) error
	// GetRate курс: сколько фиата за 1 единицу актива
	GetRate(ctx context.Context, asset string) (decimal.Decimal, error)
}

// CreateInvoiceRequest запрос на создание инвойса
type CreateInvoiceRequest struct {
	Asset       string
	Amount      decimal.Decimal
	Description string
	Payload     string // возвращается шлюзом в вебхуке и getInvoices
}
