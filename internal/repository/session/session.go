package sessionRepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/cache"
	ports "github.com/admin/tg-bots/stars-bot/internal/ports/session"
)

const keyPrefix = "session:"

// Repository хранит сессии покупки в кэше (Redis или in-memory) в виде JSON с TTL
type Repository struct {
	cache cache.Cache
	ttl   time.Duration
	Log   *slog.Logger
}

var _ ports.IStore = (*Repository)(nil)

// New ttl - время жизни брошенной сессии
func New(c cache.Cache, ttl time.Duration, log *slog.Logger) *Repository {
	return &Repository{
		cache: c,
		ttl:   ttl,
		Log:   log,
	}
}

func key(userID int64) string {
	return keyPrefix + strconv.FormatInt(userID, 10)
}

func (r *Repository) Get(ctx context.Context, userID int64) (*domain.Session, error) {
	raw, err := r.cache.Get(ctx, key(userID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		r.Log.Error("failed to get session", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// битую сессию считаем отсутствующей, пользователь начнёт заново
		r.Log.Warn("corrupted session dropped", "error", err, "user_id", userID)
		_ = r.cache.Delete(ctx, key(userID))
		return nil, domain.ErrSessionNotFound
	}
	return &s, nil
}

func (r *Repository) Save(ctx context.Context, s *domain.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.cache.Set(ctx, key(s.UserID), string(raw), r.ttlFor(s.State)); err != nil {
		r.Log.Error("failed to save session", "error", err, "user_id", s.UserID, "state", s.State)
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// ttlFor оплаченная сессия без TTL: деньги списаны, username ждём сколько угодно
func (r *Repository) ttlFor(state domain.PurchaseState) time.Duration {
	if state == domain.StateAwaitingRecipient {
		return 0
	}
	return r.ttl
}

func (r *Repository) Delete(ctx context.Context, userID int64) error {
	if err := r.cache.Delete(ctx, key(userID)); err != nil {
		r.Log.Error("failed to delete session", "error", err, "user_id", userID)
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
