package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
)

const sessionExpirerName = "session-expirer"

// SessionCloser отменяет сессию, если окно оплаты по инвойсу истекло
type SessionCloser interface {
	ExpireSession(ctx context.Context, userID int64, invoiceID string) (bool, error)
}

// SessionExpirer отменяет диалоги с истёкшим окном оплаты. Транзакция остаётся created:
// поздняя оплата всё ещё будет подтверждена.
type SessionExpirer struct {
	ledger        repository.ILedgerStore
	closer        SessionCloser
	paymentWindow time.Duration
	cfg           *Config
	log           *slog.Logger
	now           func() time.Time
}

func NewSessionExpirer(
	ledger repository.ILedgerStore,
	closer SessionCloser,
	paymentWindow time.Duration,
	cfg *Config,
	log *slog.Logger,
) *SessionExpirer {
	return &SessionExpirer{
		ledger:        ledger,
		closer:        closer,
		paymentWindow: paymentWindow,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

func (j *SessionExpirer) Name() string {
	return sessionExpirerName
}

func (j *SessionExpirer) NextRun(now time.Time) time.Time {
	return now.Add(j.cfg.ExpireInterval)
}

func (j *SessionExpirer) Run(ctx context.Context) error {
	now := j.now()
	// окно выборки: созданы не раньше lookback и уже старше окна оплаты
	overdue, err := j.ledger.ListByStatus(ctx, domain.TransactionStatusCreated,
		now.Add(-j.cfg.PollLookback), now.Add(-j.paymentWindow), j.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list overdue transactions: %w", err)
	}

	var errs []error
	expired := 0
	for _, tx := range overdue {
		ok, err := j.closer.ExpireSession(ctx, tx.UserID, tx.InvoiceID)
		// строка остаётся created: в конец очереди, чтобы не заслонять новые
		if touchErr := j.ledger.Touch(ctx, tx.InvoiceID); touchErr != nil {
			j.log.Warn("failed to touch overdue transaction", "error", touchErr, "invoice_id", tx.InvoiceID)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tx.InvoiceID, err))
			continue
		}
		if ok {
			expired++
		}
	}

	if expired > 0 {
		j.log.Info("expired payment sessions", "count", expired)
	}
	return errors.Join(errs...)
}
