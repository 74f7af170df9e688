package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"github.com/shopspring/decimal"
)

// Ledger in-memory реализация леджера для локального запуска и тестов.
// Один мьютекс на всё хранилище, поэтому каждый метод атомарен.
type Ledger struct {
	mu           sync.Mutex
	users        map[int64]*domain.User
	transactions map[string]*domain.Transaction // invoice_id -> транзакция
	now          func() time.Time
}

var _ repository.ILedgerStore = (*Ledger)(nil)

func NewLedger() *Ledger {
	return &Ledger{
		users:        make(map[int64]*domain.User),
		transactions: make(map[string]*domain.Transaction),
		now:          time.Now,
	}
}

func (l *Ledger) UpsertUser(_ context.Context, userID int64, username *string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if u, ok := l.users[userID]; ok {
		if username != nil {
			u.Username = copyString(username)
			u.UpdatedAt = now
		}
		return nil
	}

	l.users[userID] = &domain.User{
		ID:         userID,
		Username:   copyString(username),
		TotalSpent: decimal.Zero,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return nil
}

func (l *Ledger) GetUser(_ context.Context, userID int64) (*domain.User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (l *Ledger) InsertTransaction(_ context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.transactions[tx.InvoiceID]; ok {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoice, tx.InvoiceID)
	}
	if _, ok := l.users[tx.UserID]; !ok {
		return fmt.Errorf("insert transaction: %w", domain.ErrUserNotFound)
	}

	now := l.now()
	stored := *tx
	stored.Status = domain.TransactionStatusCreated
	stored.CreatedAt = now
	stored.UpdatedAt = now
	l.transactions[tx.InvoiceID] = &stored
	return nil
}

func (l *Ledger) GetByInvoiceID(_ context.Context, invoiceID string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.transactions[invoiceID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *tx
	return &copied, nil
}

func (l *Ledger) ListByStatus(_ context.Context, status domain.TransactionStatus, createdFrom, createdTo time.Time, limit int) ([]*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var result []*domain.Transaction
	for _, tx := range l.transactions {
		if tx.Status != status {
			continue
		}
		if !createdFrom.IsZero() && tx.CreatedAt.Before(createdFrom) {
			continue
		}
		if !createdTo.IsZero() && !tx.CreatedAt.Before(createdTo) {
			continue
		}
		copied := *tx
		result = append(result, &copied)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.Before(result[j].UpdatedAt)
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (l *Ledger) Touch(_ context.Context, invoiceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.transactions[invoiceID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.UpdatedAt = l.now()
	return nil
}

func (l *Ledger) AdvanceStatus(_ context.Context, invoiceID string, from, to domain.TransactionStatus) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.advanceLocked(invoiceID, from, to)
}

func (l *Ledger) CompleteWithRecipient(_ context.Context, invoiceID string, recipientTag string, stars int64, amount decimal.Decimal) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	applied, err := l.advanceLocked(invoiceID, domain.TransactionStatusPaid, domain.TransactionStatusCompleted)
	if err != nil || !applied {
		return applied, err
	}

	tx := l.transactions[invoiceID]
	tx.RecipientTag = &recipientTag
	now := l.now()
	tx.CompletedAt = &now

	if u, ok := l.users[tx.UserID]; ok {
		u.TotalStars += stars
		u.TotalSpent = u.TotalSpent.Add(amount)
		u.UpdatedAt = now
	}
	return true, nil
}

func (l *Ledger) MarkRefunded(_ context.Context, invoiceID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.advanceLocked(invoiceID, domain.TransactionStatusPaid, domain.TransactionStatusRefunded)
	return err
}

func (l *Ledger) MarkFailed(_ context.Context, invoiceID string, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tx, ok := l.transactions[invoiceID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	if tx.Status == domain.TransactionStatusFailed {
		return nil
	}

	applied, err := l.advanceLocked(invoiceID, tx.Status, domain.TransactionStatusFailed)
	if err != nil {
		return err
	}
	if applied {
		tx.ErrorMessage = &reason
	}
	return nil
}

// advanceLocked условный переход from → to, вызывать под mu
func (l *Ledger) advanceLocked(invoiceID string, from, to domain.TransactionStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	tx, ok := l.transactions[invoiceID]
	if !ok {
		return false, domain.ErrTransactionNotFound
	}

	switch tx.Status {
	case from:
		now := l.now()
		tx.Status = to
		tx.UpdatedAt = now
		if to == domain.TransactionStatusPaid {
			tx.PaidAt = &now
		}
		return true, nil
	case to:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s is %s, expected %s", domain.ErrInvalidTransition, invoiceID, tx.Status, from)
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
