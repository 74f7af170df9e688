package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
)

// ProvideRecipient пользователь прислал username получателя: проверка, доставка, при неудаче возврат
func (s *Service) ProvideRecipient(ctx context.Context, userID, chatID int64, input string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}
	return s.provideRecipientLocked(ctx, sess, input)
}

func (s *Service) provideRecipientLocked(ctx context.Context, sess *domain.Session, input string) error {
	if !Allowed(sess.State, EventRecipientProvided) {
		s.sendMessage(ctx, sess.ChatID, texts.UseButtons)
		return domain.WrapBusinessError(fmt.Errorf("%w: recipient in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	log := s.Log.With("user_id", sess.UserID, "invoice_id", sess.InvoiceID)

	if sess.RecipientTag != "" {
		// доставка уже запускалась по этой сессии
		s.sendMessage(ctx, sess.ChatID, texts.DeliveryInProgress)
		return domain.WrapBusinessError(fmt.Errorf("%w: delivery already started for %s", domain.ErrUnexpectedEvent, sess.InvoiceID))
	}

	tag := domain.NormalizeRecipient(input)
	if !domain.ValidRecipientFormat(tag) {
		s.sendMessage(ctx, sess.ChatID, texts.InvalidRecipient)
		return domain.WrapBusinessError(fmt.Errorf("%w: bad format %q", domain.ErrInvalidRecipient, input))
	}

	vctx, cancel := context.WithTimeout(ctx, s.Config.DeliveryTimeout)
	exists, err := s.Delivery.ValidateRecipient(vctx, tag)
	cancel()
	if err != nil {
		log.Warn("failed to validate recipient", "error", err, "recipient", tag)
		s.sendMessage(ctx, sess.ChatID, texts.RecipientUnverifiable)
		return domain.WrapBusinessError(fmt.Errorf("%w: %v", domain.ErrInvalidRecipient, err))
	}
	if !exists {
		s.sendMessage(ctx, sess.ChatID, texts.InvalidRecipient)
		return domain.WrapBusinessError(fmt.Errorf("%w: %q not found", domain.ErrInvalidRecipient, tag))
	}

	tx, err := s.Ledger.GetByInvoiceID(ctx, sess.InvoiceID)
	if err != nil {
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.Status != domain.TransactionStatusPaid {
		err := fmt.Errorf("%w: recipient for %s transaction", domain.ErrInvalidTransition, tx.Status)
		log.Error("session awaits recipient for unpaid transaction", "status", tx.Status)
		s.alert(ctx, texts.FormatAlertLedger("provide_recipient", tx.InvoiceID, err))
		if moveErr := s.moveTo(ctx, sess, EventRecipientProvided, domain.StateFailed); moveErr != nil {
			log.Error("failed to clear session", "error", moveErr)
		}
		s.sendMessage(ctx, sess.ChatID, texts.ErrorGeneric)
		return domain.WrapBusinessError(err)
	}

	// получатель в сессии до доставки: повторный username не запустит вторую доставку,
	// а прерванную доставку видит ResumePaid
	sess.RecipientTag = tag
	if err := s.Sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("mark delivery started: %w", err)
	}

	s.sendMessage(ctx, sess.ChatID, texts.DeliveryInProgress)

	// после списания доставка не прерывается отменой запроса, только таймаутом
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.DeliveryTimeout)
	deliveryErr := s.Delivery.Deliver(dctx, tag, tx.Stars)
	cancel()

	if deliveryErr == nil {
		s.complete(ctx, sess, tx, tag)
		return nil
	}

	log.Warn("delivery failed, refunding", "error", deliveryErr, "recipient", tag, "stars", tx.Stars)
	next := s.compensate(ctx, sess, tx, deliveryErr)
	s.finish(ctx, sess, next)

	if !errors.Is(deliveryErr, domain.ErrDeliveryFailed) {
		deliveryErr = fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, deliveryErr)
	}
	return domain.WrapBusinessError(deliveryErr)
}

func (s *Service) complete(ctx context.Context, sess *domain.Session, tx *domain.Transaction, tag string) {
	ctx = context.WithoutCancel(ctx)

	applied, err := s.Ledger.CompleteWithRecipient(ctx, tx.InvoiceID, tag, tx.Stars, tx.Amount)
	if err != nil {
		// звёзды уже у получателя, леджер чинит администратор
		s.Log.Error("stars delivered but ledger not updated",
			"error", err,
			"invoice_id", tx.InvoiceID,
			"user_id", tx.UserID,
		)
		s.alert(ctx, texts.FormatAlertLedger("complete_with_recipient", tx.InvoiceID, err))
	} else if applied {
		s.Log.Info("stars delivered",
			"invoice_id", tx.InvoiceID,
			"user_id", tx.UserID,
			"recipient", tag,
			"stars", tx.Stars,
		)
	}

	s.sendMessage(ctx, sess.ChatID, texts.FormatDelivered(tx.Stars, tag))
	s.recordOutcome(ctx, tx, domain.TransactionStatusCompleted, tag, "")
	s.finish(ctx, sess, domain.StateSuccess)
}

// compensate возврат оплаты после неудачной доставки. Refund вызывается ровно один раз.
func (s *Service) compensate(ctx context.Context, sess *domain.Session, tx *domain.Transaction, deliveryErr error) domain.PurchaseState {
	ctx = context.WithoutCancel(ctx)
	log := s.Log.With("invoice_id", tx.InvoiceID, "user_id", tx.UserID)

	rctx, cancel := context.WithTimeout(ctx, s.Config.DeliveryTimeout)
	refundErr := s.Gateway.Refund(rctx, tx.InvoiceID)
	cancel()

	if refundErr == nil {
		if err := s.Ledger.MarkRefunded(ctx, tx.InvoiceID); err != nil {
			log.Error("refund sent but ledger not updated", "error", err)
			s.alert(ctx, texts.FormatAlertLedger("mark_refunded", tx.InvoiceID, err))
		}
		log.Info("payment refunded after failed delivery")
		s.sendMessage(ctx, sess.ChatID, texts.FormatRefunded(tx.Stars))
		s.recordOutcome(ctx, tx, domain.TransactionStatusRefunded, sess.RecipientTag, deliveryErr.Error())
		return domain.StateRefunded
	}

	reason := fmt.Sprintf("delivery: %v; refund: %v", deliveryErr, refundErr)
	log.Error("refund failed, manual intervention required", "delivery_error", deliveryErr, "refund_error", refundErr)
	if err := s.Ledger.MarkFailed(ctx, tx.InvoiceID, reason); err != nil {
		log.Error("failed to mark transaction failed", "error", err)
	}
	s.alert(ctx, texts.FormatAlertRefundFailed(tx.InvoiceID, tx.UserID, tx.Stars, deliveryErr, refundErr))
	s.sendMessage(ctx, sess.ChatID, texts.FormatRefundFailed(tx.InvoiceID))
	s.recordOutcome(ctx, tx, domain.TransactionStatusFailed, sess.RecipientTag, reason)
	return domain.StateFailed
}

// finish фиксирует терминальное состояние и удаляет сессию
func (s *Service) finish(ctx context.Context, sess *domain.Session, next domain.PurchaseState) {
	if err := s.moveTo(context.WithoutCancel(ctx), sess, EventRecipientProvided, next); err != nil {
		s.Log.Warn("failed to finish session", "error", err, "user_id", sess.UserID)
	}
}
