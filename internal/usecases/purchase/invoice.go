package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
	"github.com/google/uuid"
)

// ChooseCurrency пользователь выбрал валюту: выставляем инвойс и пишем транзакцию created
func (s *Service) ChooseCurrency(ctx context.Context, userID, chatID int64, asset string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if !Allowed(sess.State, EventCurrencyChosen) {
		s.sendMessage(ctx, chatID, texts.NoActivePurchase)
		return domain.WrapBusinessError(fmt.Errorf("%w: currency in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	asset = domain.NormalizeAsset(asset)
	if !s.Config.assetAllowed(asset) {
		s.sendMessageWithKeyboard(ctx, chatID, texts.InvalidCurrency, currencyKeyboard(s.Config.Assets))
		return domain.WrapBusinessError(fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, asset))
	}
	sess.Asset = asset

	tx, err := s.issueInvoice(ctx, sess)
	if err != nil {
		// fail closed: сессия очищается, строки в леджере нет
		if moveErr := s.moveTo(ctx, sess, EventCurrencyChosen, domain.StateFailed); moveErr != nil {
			s.Log.Error("failed to clear session", "error", moveErr, "user_id", userID)
		}
		if errors.Is(err, domain.ErrGatewayUnavailable) {
			s.sendMessage(ctx, chatID, texts.ErrorGateway)
		} else {
			s.sendMessage(ctx, chatID, texts.ErrorGeneric)
		}
		return domain.WrapBusinessError(err)
	}

	deadline := s.now().Add(s.Config.PaymentWindow)
	sess.AssetAmount = tx.AssetAmount
	sess.InvoiceID = tx.InvoiceID
	sess.PayURL = tx.PayURL
	sess.PaymentDeadline = &deadline
	if err := s.moveTo(ctx, sess, EventCurrencyChosen, domain.StateAwaitingPayment); err != nil {
		return err
	}

	s.sendMessageWithKeyboard(ctx, chatID,
		texts.FormatInvoice(tx.Stars, tx.AssetAmount, tx.Asset, int(s.Config.PaymentWindow.Minutes())),
		paymentKeyboard(tx.PayURL),
	)
	return nil
}

// issueInvoice курс → сумма в активе → инвойс → транзакция created
func (s *Service) issueInvoice(ctx context.Context, sess *domain.Session) (*domain.Transaction, error) {
	log := s.Log.With("user_id", sess.UserID, "asset", sess.Asset, "stars", sess.Stars)

	// пользователь должен существовать до инвойса: иначе оплаченный инвойс не на что записать
	if err := s.Ledger.UpsertUser(ctx, sess.UserID, nil); err != nil {
		log.Error("failed to upsert user before invoice", "error", err)
		return nil, err
	}

	rate, err := s.Gateway.GetRate(ctx, sess.Asset)
	if err != nil {
		log.Warn("failed to get exchange rate", "error", err)
		if !errors.Is(err, domain.ErrGatewayUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
		}
		return nil, err
	}

	assetAmount := domain.FiatToAsset(sess.Amount, rate, sess.Asset)
	if !assetAmount.IsPositive() {
		return nil, fmt.Errorf("%w: zero amount for rate %s", domain.ErrGatewayUnavailable, rate)
	}

	inv, err := s.Gateway.CreateInvoice(ctx, payment.CreateInvoiceRequest{
		Asset:       sess.Asset,
		Amount:      assetAmount,
		Description: fmt.Sprintf("%d Telegram Stars", sess.Stars),
		Payload:     invoicePayload(sess.UserID, sess.Stars),
	})
	if err != nil {
		log.Warn("failed to create invoice", "error", err)
		return nil, err
	}

	tx := &domain.Transaction{
		ID:          uuid.New(),
		UserID:      sess.UserID,
		Stars:       sess.Stars,
		Amount:      sess.Amount,
		Asset:       sess.Asset,
		AssetAmount: assetAmount,
		InvoiceID:   inv.ID,
		PayURL:      inv.PayURL,
		Status:      domain.TransactionStatusCreated,
	}
	if err := s.Ledger.InsertTransaction(ctx, tx); err != nil {
		log.Error("failed to record invoice in ledger", "error", err, "invoice_id", inv.ID)
		s.alert(ctx, texts.FormatAlertLedger("insert_transaction", inv.ID, err))
		return nil, err
	}

	log.Info("invoice issued",
		"invoice_id", inv.ID,
		"amount", sess.Amount.StringFixed(2),
		"asset_amount", assetAmount.String(),
		"rate", rate.String(),
	)
	return tx, nil
}
