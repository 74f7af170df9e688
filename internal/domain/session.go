package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseState состояние диалога покупки
type PurchaseState string

const (
	StateIdle              PurchaseState = "idle" // сессии нет
	StateSelectingQuantity PurchaseState = "selecting_quantity"
	StateConfirmingOrder   PurchaseState = "confirming_order"
	StateSelectingCurrency PurchaseState = "selecting_currency"
	StateAwaitingPayment   PurchaseState = "awaiting_payment"
	StateAwaitingRecipient PurchaseState = "awaiting_recipient"

	// терминальные состояния: сессия уничтожается
	StateSuccess   PurchaseState = "success"
	StateRefunded  PurchaseState = "refunded"
	StateCancelled PurchaseState = "cancelled"
	StateFailed    PurchaseState = "failed"
)

func (s PurchaseState) String() string {
	return string(s)
}

func (s PurchaseState) IsTerminal() bool {
	switch s {
	case StateSuccess, StateRefunded, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

// Session контекст незавершённой покупки, не больше одной на пользователя
type Session struct {
	UserID          int64           `json:"user_id"`
	ChatID          int64           `json:"chat_id"`
	State           PurchaseState   `json:"state"`
	Stars           int64           `json:"stars,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Asset           string          `json:"asset,omitempty"`
	AssetAmount     decimal.Decimal `json:"asset_amount"`
	InvoiceID       string          `json:"invoice_id,omitempty"`
	PayURL          string          `json:"pay_url,omitempty"`
	RecipientTag    string          `json:"recipient_tag,omitempty"`
	PaymentDeadline *time.Time      `json:"payment_deadline,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PaymentExpired true если окно оплаты истекло
func (s *Session) PaymentExpired(now time.Time) bool {
	return s.State == StateAwaitingPayment && s.PaymentDeadline != nil && now.After(*s.PaymentDeadline)
}
