package purchase

import (
	"context"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

// ExpireSession отменяет сессию, если окно оплаты по инвойсу истекло. Строка created остаётся.
func (s *Service) ExpireSession(ctx context.Context, userID int64, invoiceID string) (bool, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, 0)
	if err != nil {
		return false, err
	}
	if sess.InvoiceID != invoiceID || !sess.PaymentExpired(s.now()) {
		return false, nil
	}
	if err := s.timeoutLocked(ctx, sess); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) timeoutLocked(ctx context.Context, sess *domain.Session) error {
	if err := s.moveTo(ctx, sess, EventTimeout, domain.StateCancelled); err != nil {
		return err
	}

	s.Log.Info("payment window expired",
		"user_id", sess.UserID,
		"invoice_id", sess.InvoiceID,
	)
	s.sendMessage(ctx, sess.ChatID, texts.PaymentExpired)
	return nil
}

// ExpireInvoice шлюз сообщил, что инвойс истёк: created → failed, сессия отменяется
func (s *Service) ExpireInvoice(ctx context.Context, invoiceID string) error {
	tx, err := s.Ledger.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(tx.UserID)
	defer unlock()

	sess, err := s.loadSession(ctx, tx.UserID, 0)
	if err != nil {
		return err
	}
	return s.expireInvoiceLocked(ctx, invoiceID, sess)
}

func (s *Service) expireInvoiceLocked(ctx context.Context, invoiceID string, sess *domain.Session) error {
	tx, err := s.Ledger.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if tx.Status != domain.TransactionStatusCreated {
		return nil
	}

	if err := s.Ledger.MarkFailed(ctx, invoiceID, "invoice expired"); err != nil {
		s.Log.Error("failed to mark expired invoice", "error", err, "invoice_id", invoiceID)
		return err
	}
	s.recordOutcome(ctx, tx, domain.TransactionStatusFailed, "", "invoice expired")

	if sess.State == domain.StateAwaitingPayment && sess.InvoiceID == invoiceID {
		return s.timeoutLocked(ctx, sess)
	}
	return nil
}
