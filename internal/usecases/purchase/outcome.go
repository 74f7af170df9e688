package purchase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// ReceiptPrefix каталог чеков пользователя в S3
func ReceiptPrefix(userID int64) string {
	return fmt.Sprintf("receipts/%d/", userID)
}

// ReceiptPath путь чека покупки в S3
func ReceiptPath(userID int64, invoiceID string) string {
	return ReceiptPrefix(userID) + invoiceID + ".json"
}

// recordOutcome публикует итог в Kafka и сохраняет чек. Ошибки только логируются:
// леджер уже зафиксирован.
func (s *Service) recordOutcome(ctx context.Context, tx *domain.Transaction, status domain.TransactionStatus, recipient, reason string) {
	outcome := &domain.PurchaseOutcome{
		TransactionID: tx.ID,
		UserID:        tx.UserID,
		InvoiceID:     tx.InvoiceID,
		Stars:         tx.Stars,
		Amount:        tx.Amount,
		Asset:         tx.Asset,
		AssetAmount:   tx.AssetAmount,
		RecipientTag:  recipient,
		Status:        status,
		Reason:        reason,
		OccurredAt:    s.now().UTC(),
	}

	if s.Events != nil {
		if err := s.Events.PublishOutcome(ctx, outcome); err != nil {
			s.Log.Warn("failed to publish purchase outcome", "error", err, "invoice_id", tx.InvoiceID)
		}
	}

	if s.Receipts != nil {
		data, err := json.Marshal(outcome)
		if err != nil {
			s.Log.Warn("failed to marshal receipt", "error", err, "invoice_id", tx.InvoiceID)
			return
		}
		if err := s.Receipts.PutFile(ctx, ReceiptPath(tx.UserID, tx.InvoiceID), data, "application/json"); err != nil {
			s.Log.Warn("failed to store receipt", "error", err, "invoice_id", tx.InvoiceID)
		}
	}
}
