package repository

import (
	"context"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/shopspring/decimal"
)

// ILedgerStore леджер пользователей и транзакций.
// Все изменяющие методы атомарны относительно своего ключа (user id / invoice id).
type ILedgerStore interface {
	// UpsertUser создаёт пользователя или обновляет username, идемпотентно
	UpsertUser(ctx context.Context, userID int64, username *string) error
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// InsertTransaction пишет транзакцию в статусе created, domain.ErrDuplicateInvoice если инвойс уже есть
	InsertTransaction(ctx context.Context, tx *domain.Transaction) error
	GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Transaction, error)
	// ListByStatus сначала давно не обновлявшиеся: фоновые задачи обходят строки по кругу
	ListByStatus(ctx context.Context, status domain.TransactionStatus, createdFrom, createdTo time.Time, limit int) ([]*domain.Transaction, error)
	// Touch сдвигает updated_at без смены статуса, строка уходит в конец очереди ListByStatus
	Touch(ctx context.Context, invoiceID string) error

	// AdvanceStatus условный переход from → to.
	// applied=false без ошибки, если статус уже равен to; domain.ErrInvalidTransition если статус ни from, ни to.
	AdvanceStatus(ctx context.Context, invoiceID string, from, to domain.TransactionStatus) (applied bool, err error)

	// CompleteWithRecipient атомарно: paid → completed, recipient_tag, счётчики пользователя
	CompleteWithRecipient(ctx context.Context, invoiceID string, recipientTag string, stars int64, amount decimal.Decimal) (applied bool, err error)

	MarkRefunded(ctx context.Context, invoiceID string) error
	MarkFailed(ctx context.Context, invoiceID string, reason string) error
}
