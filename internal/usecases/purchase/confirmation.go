package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

// ConfirmPayment created → paid по инвойсу. Один вход для вебхука, поллера и кнопки проверки.
// Повторное подтверждение - no-op; неизвестный инвойс логируется и отбрасывается.
func (s *Service) ConfirmPayment(ctx context.Context, invoiceID string, source domain.ConfirmationSource) error {
	tx, err := s.Ledger.GetByInvoiceID(ctx, invoiceID)
	if errors.Is(err, domain.ErrTransactionNotFound) {
		s.Log.Warn("payment confirmation for unknown invoice discarded",
			"invoice_id", invoiceID,
			"source", source,
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}

	unlock := s.locks.lock(tx.UserID)
	defer unlock()

	_, err = s.confirmPaymentLocked(ctx, tx, source)
	return err
}

// confirmPaymentLocked вызывать под блокировкой пользователя tx.UserID.
// applied=true только у вызова, который реально выполнил переход; он же двигает сессию.
func (s *Service) confirmPaymentLocked(ctx context.Context, tx *domain.Transaction, source domain.ConfirmationSource) (bool, error) {
	log := s.Log.With("invoice_id", tx.InvoiceID, "user_id", tx.UserID, "source", source)

	applied, err := s.Ledger.AdvanceStatus(ctx, tx.InvoiceID, domain.TransactionStatusCreated, domain.TransactionStatusPaid)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			return false, fmt.Errorf("advance to paid: %w", err)
		}

		current, getErr := s.Ledger.GetByInvoiceID(ctx, tx.InvoiceID)
		if getErr == nil && current.PaidAt != nil {
			// уже прошла дальше paid (completed/refunded/failed после оплаты): повтор
			log.Debug("duplicate payment confirmation ignored", "status", current.Status)
			return false, nil
		}

		log.Error("payment confirmed for transaction that cannot be paid", "error", err)
		s.alert(ctx, texts.FormatAlertLedger("confirm_payment", tx.InvoiceID, err))
		return false, err
	}
	if !applied {
		log.Debug("duplicate payment confirmation ignored")
		return false, nil
	}

	log.Info("payment confirmed")
	if err := s.awaitRecipient(ctx, tx); err != nil {
		return true, err
	}
	return true, nil
}

// awaitRecipient переводит пользователя к вводу получателя для оплаченной транзакции.
// Если сессии уже нет (таймаут, отмена), создаётся новая для этого инвойса.
func (s *Service) awaitRecipient(ctx context.Context, tx *domain.Transaction) error {
	sess, err := s.loadSession(ctx, tx.UserID, 0)
	if err != nil {
		return err
	}
	chatID := sess.ChatID
	if chatID == 0 {
		chatID = tx.UserID // личный чат: chat_id совпадает с user_id
	}

	if sess.State == domain.StateAwaitingRecipient {
		if sess.InvoiceID == tx.InvoiceID {
			return nil
		}
		// вторая оплаченная покупка, пока ждём получателя по первой
		s.Log.Error("paid invoice while another purchase awaits recipient",
			"user_id", tx.UserID,
			"invoice_id", tx.InvoiceID,
			"pending_invoice_id", sess.InvoiceID,
		)
		s.alert(ctx, texts.FormatAlertLedger("second_paid_invoice", tx.InvoiceID,
			fmt.Errorf("user %d still has %s awaiting recipient", tx.UserID, sess.InvoiceID)))
		return nil
	}

	next := &domain.Session{
		UserID:      tx.UserID,
		ChatID:      chatID,
		State:       sess.State,
		Stars:       tx.Stars,
		Amount:      tx.Amount,
		Asset:       tx.Asset,
		AssetAmount: tx.AssetAmount,
		InvoiceID:   tx.InvoiceID,
		PayURL:      tx.PayURL,
	}
	if err := s.moveTo(ctx, next, EventPaymentConfirmed, domain.StateAwaitingRecipient); err != nil {
		return err
	}

	s.sendMessage(ctx, chatID, texts.AskRecipient)
	return nil
}

// CheckPayment кнопка «Проверить оплату»: опрос шлюза по инвойсу текущей сессии
func (s *Service) CheckPayment(ctx context.Context, userID, chatID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if !Allowed(sess.State, EventCheckPayment) {
		msg := texts.NoActivePurchase
		if sess.State == domain.StateAwaitingRecipient {
			msg = texts.AskRecipient
		}
		s.sendMessage(ctx, chatID, msg)
		return domain.WrapBusinessError(fmt.Errorf("%w: check payment in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	status, err := s.Gateway.GetInvoiceStatus(ctx, sess.InvoiceID)
	if err != nil {
		s.Log.Warn("failed to check invoice status", "error", err, "invoice_id", sess.InvoiceID)
		s.sendMessage(ctx, chatID, texts.ErrorGateway)
		return domain.WrapBusinessError(err)
	}

	switch status {
	case domain.InvoiceStatusPaid:
		tx, err := s.Ledger.GetByInvoiceID(ctx, sess.InvoiceID)
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		applied, err := s.confirmPaymentLocked(ctx, tx, domain.ConfirmationSourceUser)
		if err != nil {
			return err
		}
		if applied {
			return nil
		}
		// переход сделал вебхук или поллер, а сессия осталась в ожидании оплаты
		current, err := s.Ledger.GetByInvoiceID(ctx, sess.InvoiceID)
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		if current.Status != domain.TransactionStatusPaid {
			return nil
		}
		return s.awaitRecipient(ctx, current)

	case domain.InvoiceStatusExpired:
		return s.expireInvoiceLocked(ctx, sess.InvoiceID, sess)

	default:
		if sess.PaymentExpired(s.now()) {
			return s.timeoutLocked(ctx, sess)
		}
		s.sendMessage(ctx, chatID, texts.CheckPaymentPending)
		return nil
	}
}
