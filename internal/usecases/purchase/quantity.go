package purchase

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/usecases/purchase/texts"
	"github.com/shopspring/decimal"
)

// StartPurchase начинает новую покупку, незавершённая сессия сбрасывается
func (s *Service) StartPurchase(ctx context.Context, userID, chatID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}
	return s.startPurchaseLocked(ctx, sess)
}

func (s *Service) startPurchaseLocked(ctx context.Context, sess *domain.Session) error {
	if !Allowed(sess.State, EventStart) {
		s.sendMessage(ctx, sess.ChatID, texts.FinishCurrentPurchase)
		return domain.WrapBusinessError(fmt.Errorf("%w: start in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	// новая покупка не наследует данные старой
	fresh := &domain.Session{
		UserID: sess.UserID,
		ChatID: sess.ChatID,
		State:  sess.State,
	}
	if err := s.moveTo(ctx, fresh, EventStart, domain.StateSelectingQuantity); err != nil {
		return err
	}

	s.sendMessage(ctx, sess.ChatID, texts.FormatAskQuantity(s.Config.MinStars, s.Config.MaxStars))
	return nil
}

// ProvideQuantity пользователь ввёл количество звёзд
func (s *Service) ProvideQuantity(ctx context.Context, userID, chatID int64, input string) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}
	return s.provideQuantityLocked(ctx, sess, input)
}

func (s *Service) provideQuantityLocked(ctx context.Context, sess *domain.Session, input string) error {
	if !Allowed(sess.State, EventQuantityProvided) {
		s.sendMessage(ctx, sess.ChatID, texts.UseButtons)
		return domain.WrapBusinessError(fmt.Errorf("%w: quantity in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	stars, err := s.parseQuantity(input)
	if err != nil {
		s.sendMessage(ctx, sess.ChatID, texts.FormatInvalidQuantity(s.Config.MinStars, s.Config.MaxStars))
		return domain.WrapBusinessError(err)
	}

	sess.Stars = stars
	sess.Amount = s.cost(stars)
	if err := s.moveTo(ctx, sess, EventQuantityProvided, domain.StateConfirmingOrder); err != nil {
		return err
	}

	s.sendMessageWithKeyboard(ctx, sess.ChatID,
		texts.FormatConfirmOrder(sess.Stars, sess.Amount, domain.FiatCurrency),
		confirmKeyboard(),
	)
	return nil
}

// parseQuantity целое число в [MinStars, MaxStars]
func (s *Service) parseQuantity(input string) (int64, error) {
	stars, err := strconv.ParseInt(strings.TrimSpace(input), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidQuantity, input)
	}
	if stars < s.Config.MinStars || stars > s.Config.MaxStars {
		return 0, fmt.Errorf("%w: %d not in [%d, %d]", domain.ErrInvalidQuantity, stars, s.Config.MinStars, s.Config.MaxStars)
	}
	return stars, nil
}

// cost стоимость в фиате, 2 знака
func (s *Service) cost(stars int64) decimal.Decimal {
	return s.Config.StarPrice.Mul(decimal.NewFromInt(stars)).Round(2)
}

// ConfirmOrder пользователь подтвердил заказ
func (s *Service) ConfirmOrder(ctx context.Context, userID, chatID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if !Allowed(sess.State, EventConfirm) {
		s.sendMessage(ctx, chatID, texts.NoActivePurchase)
		return domain.WrapBusinessError(fmt.Errorf("%w: confirm in %s", domain.ErrUnexpectedEvent, sess.State))
	}
	if err := s.moveTo(ctx, sess, EventConfirm, domain.StateSelectingCurrency); err != nil {
		return err
	}

	s.sendMessageWithKeyboard(ctx, chatID, texts.ChooseCurrency, currencyKeyboard(s.Config.Assets))
	return nil
}

// Cancel отменяет покупку до оплаты. Строка created в леджере не трогается.
func (s *Service) Cancel(ctx context.Context, userID, chatID int64) error {
	unlock := s.locks.lock(userID)
	defer unlock()

	sess, err := s.loadSession(ctx, userID, chatID)
	if err != nil {
		return err
	}

	if !Allowed(sess.State, EventCancel) {
		msg := texts.NothingToCancel
		if sess.State == domain.StateAwaitingRecipient {
			msg = texts.FinishCurrentPurchase
		}
		s.sendMessage(ctx, chatID, msg)
		return domain.WrapBusinessError(fmt.Errorf("%w: cancel in %s", domain.ErrUnexpectedEvent, sess.State))
	}

	if err := s.moveTo(ctx, sess, EventCancel, domain.StateCancelled); err != nil {
		return err
	}

	s.Log.Info("purchase cancelled by user",
		"user_id", userID,
		"invoice_id", sess.InvoiceID,
	)
	s.sendMessage(ctx, chatID, texts.OrderCancelled)
	return nil
}
