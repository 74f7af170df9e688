package purchase

import (
	"context"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

// ResumePaid оплаченная транзакция, по которой бот не ждёт получателя.
// Потерянная сессия (сброс Redis, рестарт in-memory) восстанавливается и пользователь снова
// получает запрос username; прерванная доставка переводится в failed с алертом.
// resumed=true если что-то изменилось.
func (s *Service) ResumePaid(ctx context.Context, invoiceID string) (bool, error) {
	tx, err := s.Ledger.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return false, fmt.Errorf("get transaction: %w", err)
	}

	unlock := s.locks.lock(tx.UserID)
	defer unlock()

	// под блокировкой: доставка могла завершиться, пока ждали
	tx, err = s.Ledger.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return false, fmt.Errorf("get transaction: %w", err)
	}
	if tx.Status != domain.TransactionStatusPaid {
		return false, nil
	}

	sess, err := s.loadSession(ctx, tx.UserID, 0)
	if err != nil {
		return false, err
	}

	if sess.State == domain.StateAwaitingRecipient {
		if sess.InvoiceID != tx.InvoiceID {
			// очередь за первой покупкой, алерт ушёл при подтверждении
			return false, nil
		}
		if sess.RecipientTag == "" {
			return false, nil
		}
		// блокировка свободна, значит Deliver не выполняется: процесс упал посреди доставки
		if err := s.interruptDeliveryLocked(ctx, sess, tx); err != nil {
			return false, err
		}
		return true, nil
	}

	if err := s.awaitRecipient(ctx, tx); err != nil {
		return false, err
	}

	paidFor := s.now().Sub(tx.CreatedAt)
	if tx.PaidAt != nil {
		paidFor = s.now().Sub(*tx.PaidAt)
	}
	s.Log.Warn("paid purchase resumed without session",
		"user_id", tx.UserID,
		"invoice_id", tx.InvoiceID,
		"paid_for", paidFor,
	)
	s.alert(ctx, texts.FormatAlertPaidResumed(tx.InvoiceID, tx.UserID, paidFor))
	return true, nil
}

// interruptDeliveryLocked звёзды могли уйти, поэтому ни повторной доставки, ни автоматического возврата
func (s *Service) interruptDeliveryLocked(ctx context.Context, sess *domain.Session, tx *domain.Transaction) error {
	reason := fmt.Sprintf("delivery to %s interrupted", sess.RecipientTag)
	s.Log.Error("delivery interrupted, manual reconciliation required",
		"user_id", tx.UserID,
		"invoice_id", tx.InvoiceID,
		"recipient", sess.RecipientTag,
	)

	if err := s.Ledger.MarkFailed(ctx, tx.InvoiceID, reason); err != nil {
		return fmt.Errorf("mark interrupted delivery: %w", err)
	}
	s.alert(ctx, texts.FormatAlertDeliveryInterrupted(tx.InvoiceID, tx.UserID, tx.Stars, sess.RecipientTag))
	s.sendMessage(ctx, sess.ChatID, texts.DeliveryInterrupted)
	s.recordOutcome(ctx, tx, domain.TransactionStatusFailed, sess.RecipientTag, reason)
	s.finish(ctx, sess, domain.StateFailed)
	return nil
}
