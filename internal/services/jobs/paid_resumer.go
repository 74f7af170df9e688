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

const paidResumerName = "paid-resumer"

// PaidResumer возвращает в диалог оплаченную покупку, по которой бот не ждёт получателя
type PaidResumer interface {
	ResumePaid(ctx context.Context, invoiceID string) (bool, error)
}

// PaidSweeper обходит транзакции paid: деньги получены, звёзды ещё не отправлены.
// Покупка не должна зависнуть в paid без сессии и без алерта.
type PaidSweeper struct {
	ledger  repository.ILedgerStore
	resumer PaidResumer
	cfg     *Config
	log     *slog.Logger
}

func NewPaidSweeper(ledger repository.ILedgerStore, resumer PaidResumer, cfg *Config, log *slog.Logger) *PaidSweeper {
	return &PaidSweeper{
		ledger:  ledger,
		resumer: resumer,
		cfg:     cfg,
		log:     log,
	}
}

func (j *PaidSweeper) Name() string {
	return paidResumerName
}

func (j *PaidSweeper) NextRun(now time.Time) time.Time {
	return now.Add(j.cfg.ResumeInterval)
}

func (j *PaidSweeper) Run(ctx context.Context) error {
	paid, err := j.ledger.ListByStatus(ctx, domain.TransactionStatusPaid, time.Time{}, time.Time{}, j.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list paid transactions: %w", err)
	}

	var errs []error
	resumed := 0
	for _, tx := range paid {
		ok, err := j.resumer.ResumePaid(ctx, tx.InvoiceID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", tx.InvoiceID, err))
		} else if ok {
			resumed++
		}
		if touchErr := j.ledger.Touch(ctx, tx.InvoiceID); touchErr != nil {
			j.log.Warn("failed to touch paid transaction", "error", touchErr, "invoice_id", tx.InvoiceID)
		}
	}

	if resumed > 0 {
		j.log.Warn("resumed stranded paid purchases", "count", resumed)
	}
	return errors.Join(errs...)
}
