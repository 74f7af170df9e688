package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus статус покупки в леджере
type TransactionStatus string

const (
	TransactionStatusCreated   TransactionStatus = "created"   // инвойс выставлен, ждём оплату
	TransactionStatusPaid      TransactionStatus = "paid"      // оплата подтверждена
	TransactionStatusCompleted TransactionStatus = "completed" // звёзды доставлены
	TransactionStatusRefunded  TransactionStatus = "refunded"  // доставка не прошла, деньги возвращены
	TransactionStatusFailed    TransactionStatus = "failed"    // возврат не прошёл или инвойс истёк
)

// transactionTransitions допустимые переходы статусов, только вперёд
var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCreated: {TransactionStatusPaid, TransactionStatusFailed},
	TransactionStatusPaid:    {TransactionStatusCompleted, TransactionStatusRefunded, TransactionStatusFailed},
}

func (s TransactionStatus) String() string {
	return string(s)
}

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusCreated, TransactionStatusPaid, TransactionStatusCompleted,
		TransactionStatusRefunded, TransactionStatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal true для статусов, из которых переходов нет
func (s TransactionStatus) IsTerminal() bool {
	return len(transactionTransitions[s]) == 0
}

// CanTransitionTo проверяет ребро s → to по таблице переходов
func (s TransactionStatus) CanTransitionTo(to TransactionStatus) bool {
	for _, next := range transactionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Transaction покупка звёзд; один инвойс соответствует максимум одной транзакции
type Transaction struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	UserID       int64             `json:"user_id" db:"user_id"`
	Stars        int64             `json:"stars" db:"stars"`
	Amount       decimal.Decimal   `json:"amount" db:"amount"`             // сумма в фиате (RUB)
	Asset        string            `json:"asset" db:"asset"`               // валюта оплаты в CryptoBot
	AssetAmount  decimal.Decimal   `json:"asset_amount" db:"asset_amount"` // сумма в крипте
	InvoiceID    string            `json:"invoice_id" db:"invoice_id"`
	PayURL       string            `json:"pay_url" db:"pay_url"`
	RecipientTag *string           `json:"recipient_tag,omitempty" db:"recipient_tag"`
	Status       TransactionStatus `json:"status" db:"status"`
	ErrorMessage *string           `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
	PaidAt       *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}
