package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/payment"
	"github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"golang.org/x/sync/errgroup"
)

const paymentPollerName = "payment-poller"

// InvoiceSettler подтверждает оплату или закрывает истёкший инвойс
type InvoiceSettler interface {
	ConfirmPayment(ctx context.Context, invoiceID string, source domain.ConfirmationSource) error
	ExpireInvoice(ctx context.Context, invoiceID string) error
}

// PaymentPoller страховка на случай потерянного вебхука: опрашивает шлюз по инвойсам created
type PaymentPoller struct {
	ledger  repository.ILedgerStore
	gateway payment.IPaymentGateway
	settler InvoiceSettler
	cfg     *Config
	log     *slog.Logger
	now     func() time.Time
}

func NewPaymentPoller(
	ledger repository.ILedgerStore,
	gateway payment.IPaymentGateway,
	settler InvoiceSettler,
	cfg *Config,
	log *slog.Logger,
) *PaymentPoller {
	return &PaymentPoller{
		ledger:  ledger,
		gateway: gateway,
		settler: settler,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (j *PaymentPoller) Name() string {
	return paymentPollerName
}

func (j *PaymentPoller) NextRun(now time.Time) time.Time {
	return now.Add(j.cfg.PollInterval)
}

// Run ошибки отдельных инвойсов не прерывают обход; возвращается их объединение
func (j *PaymentPoller) Run(ctx context.Context) error {
	now := j.now()
	pending, err := j.ledger.ListByStatus(ctx, domain.TransactionStatusCreated, now.Add(-j.cfg.PollLookback), now, j.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("list created transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	var (
		mu     sync.Mutex
		errs   []error
		paid   int
		closed int
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(max(j.cfg.Concurrency, 1))

	for _, tx := range pending {
		g.Go(func() error {
			status, err := j.gateway.GetInvoiceStatus(gCtx, tx.InvoiceID)
			if err == nil {
				switch status {
				case domain.InvoiceStatusPaid:
					err = j.settler.ConfirmPayment(gCtx, tx.InvoiceID, domain.ConfirmationSourcePoller)
					if err == nil {
						mu.Lock()
						paid++
						mu.Unlock()
					}
				case domain.InvoiceStatusExpired:
					err = j.settler.ExpireInvoice(gCtx, tx.InvoiceID)
					if err == nil {
						mu.Lock()
						closed++
						mu.Unlock()
					}
				}
			}
			if err != nil {
				j.log.Warn("failed to poll invoice", "error", err, "invoice_id", tx.InvoiceID)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", tx.InvoiceID, err))
				mu.Unlock()
			}
			if err != nil || status == domain.InvoiceStatusActive {
				// строка остаётся created и уходит в конец очереди, следующий батч берёт другие
				j.touch(gCtx, tx.InvoiceID)
			}
			return nil
		})
	}
	_ = g.Wait()

	j.log.Debug("payment poll finished",
		"checked", len(pending),
		"paid", paid,
		"expired", closed,
		"failed", len(errs),
	)
	return errors.Join(errs...)
}

func (j *PaymentPoller) touch(ctx context.Context, invoiceID string) {
	if err := j.ledger.Touch(ctx, invoiceID); err != nil {
		j.log.Warn("failed to touch polled transaction", "error", err, "invoice_id", invoiceID)
	}
}
