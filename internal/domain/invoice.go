package domain

import "github.com/shopspring/decimal"

// InvoiceStatus статус инвойса на стороне платёжного шлюза
type InvoiceStatus string

const (
	InvoiceStatusActive  InvoiceStatus = "active"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// Invoice выставленный шлюзом счёт
type Invoice struct {
	ID     string
	PayURL string
	Asset  string
	Amount decimal.Decimal
	Status InvoiceStatus
}

// PaymentNotification входящее уведомление шлюза об изменении статуса инвойса
type PaymentNotification struct {
	InvoiceID string
	Status    InvoiceStatus
}

// ConfirmationSource откуда пришло подтверждение оплаты
type ConfirmationSource string

const (
	ConfirmationSourceWebhook ConfirmationSource = "webhook"
	ConfirmationSourcePoller  ConfirmationSource = "poller"
	ConfirmationSourceUser    ConfirmationSource = "user_check"
)
