package session

import (
	"context"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
)

// IStore хранилище сессий покупки, одна сессия на пользователя
type IStore interface {
	// Get возвращает domain.ErrSessionNotFound если сессии нет или она истекла
	Get(ctx context.Context, userID int64) (*domain.Session, error)
	// Save перезаписывает сессию пользователя целиком
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, userID int64) error
}
