package purchase

import (
	"context"
	"errors"
	"fmt"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// loadSession сессия пользователя или пустая сессия в состоянии idle
func (s *Service) loadSession(ctx context.Context, userID, chatID int64) (*domain.Session, error) {
	sess, err := s.Sessions.Get(ctx, userID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return &domain.Session{UserID: userID, ChatID: chatID, State: domain.StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if chatID != 0 {
		sess.ChatID = chatID
	}
	return sess, nil
}

// moveTo переводит сессию по событию; терминальное состояние удаляет сессию
func (s *Service) moveTo(ctx context.Context, sess *domain.Session, event Event, next domain.PurchaseState) error {
	if err := Transition(sess.State, event, next); err != nil {
		return err
	}

	prev := sess.State
	sess.State = next
	sess.UpdatedAt = s.now()

	if next.IsTerminal() {
		if err := s.Sessions.Delete(ctx, sess.UserID); err != nil {
			return err
		}
	} else if err := s.Sessions.Save(ctx, sess); err != nil {
		return err
	}

	s.Log.Debug("purchase state changed",
		"user_id", sess.UserID,
		"from", prev,
		"event", event,
		"to", next,
		"invoice_id", sess.InvoiceID,
	)
	return nil
}
