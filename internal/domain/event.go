package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOutcome итог саги, публикуется в Kafka и сохраняется как чек
type PurchaseOutcome struct {
	TransactionID uuid.UUID         `json:"transaction_id"`
	UserID        int64             `json:"user_id"`
	InvoiceID     string            `json:"invoice_id"`
	Stars         int64             `json:"stars"`
	Amount        decimal.Decimal   `json:"amount"`
	Asset         string            `json:"asset"`
	AssetAmount   decimal.Decimal   `json:"asset_amount"`
	RecipientTag  string            `json:"recipient_tag,omitempty"`
	Status        TransactionStatus `json:"status"`
	Reason        string            `json:"reason,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
