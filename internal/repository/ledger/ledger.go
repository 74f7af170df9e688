package ledgerRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/persistence"
	ports "github.com/admin/tg-bots/stars-bot/internal/ports/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

type transactionColumns struct {
	TableName    string
	ID           string
	UserID       string
	Stars        string
	Amount       string
	Asset        string
	AssetAmount  string
	InvoiceID    string
	PayURL       string
	RecipientTag string
	Status       string
	ErrorMessage string
	CreatedAt    string
	UpdatedAt    string
	PaidAt       string
	CompletedAt  string
}

type userColumns struct {
	TableName  string
	ID         string
	Username   string
	TotalStars string
	TotalSpent string
	CreatedAt  string
	UpdatedAt  string
}

type Repository struct {
	db      persistence.Persistence
	Log     *slog.Logger
	txCols  transactionColumns
	usrCols userColumns
}

var _ ports.ILedgerStore = (*Repository)(nil)

// New создаёт леджер поверх Postgres
func New(db persistence.Persistence, log *slog.Logger) *Repository {
	return &Repository{
		db:  db,
		Log: log,
		txCols: transactionColumns{
			TableName:    "transactions",
			ID:           "id",
			UserID:       "user_id",
			Stars:        "stars",
			Amount:       "amount",
			Asset:        "asset",
			AssetAmount:  "asset_amount",
			InvoiceID:    "invoice_id",
			PayURL:       "pay_url",
			RecipientTag: "recipient_tag",
			Status:       "status",
			ErrorMessage: "error_message",
			CreatedAt:    "created_at",
			UpdatedAt:    "updated_at",
			PaidAt:       "paid_at",
			CompletedAt:  "completed_at",
		},
		usrCols: userColumns{
			TableName:  "users",
			ID:         "id",
			Username:   "username",
			TotalStars: "total_stars",
			TotalSpent: "total_spent",
			CreatedAt:  "created_at",
			UpdatedAt:  "updated_at",
		},
	}
}

func (r *Repository) transactionColumnsList() string {
	c := r.txCols
	return strings.Join([]string{
		c.ID, c.UserID, c.Stars, c.Amount, c.Asset, c.AssetAmount, c.InvoiceID, c.PayURL,
		c.RecipientTag, c.Status, c.ErrorMessage, c.CreatedAt, c.UpdatedAt, c.PaidAt, c.CompletedAt,
	}, ", ")
}

func (r *Repository) userColumnsList() string {
	c := r.usrCols
	return strings.Join([]string{c.ID, c.Username, c.TotalStars, c.TotalSpent, c.CreatedAt, c.UpdatedAt}, ", ")
}

// UpsertUser создаёт пользователя или обновляет username
func (r *Repository) UpsertUser(ctx context.Context, userID int64, username *string) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s) VALUES ($1, $2)
		ON CONFLICT (%s) DO UPDATE SET %s = COALESCE(EXCLUDED.%s, %s.%s), %s = NOW()`,
		r.usrCols.TableName, r.usrCols.ID, r.usrCols.Username,
		r.usrCols.ID,
		r.usrCols.Username, r.usrCols.Username, r.usrCols.TableName, r.usrCols.Username,
		r.usrCols.UpdatedAt,
	)

	if err := r.db.Exec(ctx, query, userID, username); err != nil {
		r.Log.Error("failed to upsert user", "error", err, "user_id", userID)
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser получает пользователя по Telegram id
func (r *Repository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	var user domain.User

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.userColumnsList(), r.usrCols.TableName, r.usrCols.ID,
	)

	if err := r.db.Get(ctx, &user, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		r.Log.Error("failed to get user", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// InsertTransaction пишет транзакцию в статусе created
func (r *Repository) InsertTransaction(ctx context.Context, tx *domain.Transaction) error {
	c := r.txCols
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s)
		VALUES (:id, :user_id, :stars, :amount, :asset, :asset_amount, :invoice_id, :pay_url, '%s')`,
		c.TableName,
		c.ID, c.UserID, c.Stars, c.Amount, c.Asset, c.AssetAmount, c.InvoiceID, c.PayURL, c.Status,
		domain.TransactionStatusCreated,
	)

	if err := r.db.NamedExec(ctx, query, tx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			r.Log.Error("duplicate invoice in ledger", "invoice_id", tx.InvoiceID, "user_id", tx.UserID)
			return fmt.Errorf("%w: %s", domain.ErrDuplicateInvoice, tx.InvoiceID)
		}
		r.Log.Error("failed to insert transaction",
			"error", err,
			"invoice_id", tx.InvoiceID,
			"user_id", tx.UserID,
		)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	r.Log.Debug("transaction created",
		"invoice_id", tx.InvoiceID,
		"user_id", tx.UserID,
		"stars", tx.Stars,
	)
	return nil
}

// GetByInvoiceID получает транзакцию по id инвойса
func (r *Repository) GetByInvoiceID(ctx context.Context, invoiceID string) (*domain.Transaction, error) {
	return r.getByInvoiceID(ctx, r.db, invoiceID)
}

func (r *Repository) getByInvoiceID(ctx context.Context, exec persistence.Executor, invoiceID string) (*domain.Transaction, error) {
	var tx domain.Transaction

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		r.transactionColumnsList(), r.txCols.TableName, r.txCols.InvoiceID,
	)

	if err := exec.Get(ctx, &tx, query, invoiceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		r.Log.Error("failed to get transaction", "error", err, "invoice_id", invoiceID)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// ListByStatus транзакции в статусе, созданные в [createdFrom, createdTo), по возрастанию updated_at;
// нулевые границы не ограничивают
func (r *Repository) ListByStatus(ctx context.Context, status domain.TransactionStatus, createdFrom, createdTo time.Time, limit int) ([]*domain.Transaction, error) {
	c := r.txCols
	where := []string{fmt.Sprintf("%s = $1", c.Status)}
	args := []interface{}{status}

	if !createdFrom.IsZero() {
		args = append(args, createdFrom)
		where = append(where, fmt.Sprintf("%s >= $%d", c.CreatedAt, len(args)))
	}
	if !createdTo.IsZero() {
		args = append(args, createdTo)
		where = append(where, fmt.Sprintf("%s < $%d", c.CreatedAt, len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s, %s`,
		r.transactionColumnsList(), c.TableName, strings.Join(where, " AND "), c.UpdatedAt, c.CreatedAt,
	)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var txs []*domain.Transaction
	if err := r.db.Select(ctx, &txs, query, args...); err != nil {
		r.Log.Error("failed to list transactions", "error", err, "status", status)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// Touch updated_at = NOW() без смены статуса
func (r *Repository) Touch(ctx context.Context, invoiceID string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = NOW() WHERE %s = $1`,
		r.txCols.TableName, r.txCols.UpdatedAt, r.txCols.InvoiceID,
	)

	rows, err := r.db.ExecWithResult(ctx, query, invoiceID)
	if err != nil {
		r.Log.Error("failed to touch transaction", "error", err, "invoice_id", invoiceID)
		return fmt.Errorf("failed to touch transaction: %w", err)
	}
	if rows == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// AdvanceStatus условный UPDATE ... WHERE status = from
func (r *Repository) AdvanceStatus(ctx context.Context, invoiceID string, from, to domain.TransactionStatus) (bool, error) {
	return r.advance(ctx, r.db, invoiceID, from, to, "")
}

// advance общий переход статуса; extraSet добавляется в SET (например paid_at = NOW())
func (r *Repository) advance(ctx context.Context, exec persistence.Executor, invoiceID string, from, to domain.TransactionStatus, extraSet string, extraArgs ...interface{}) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	c := r.txCols
	set := fmt.Sprintf("%s = $1, %s = NOW()", c.Status, c.UpdatedAt)
	if to == domain.TransactionStatusPaid {
		set += fmt.Sprintf(", %s = NOW()", c.PaidAt)
	}
	if extraSet != "" {
		set += ", " + extraSet
	}

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = $2 AND %s = $3`,
		c.TableName, set, c.InvoiceID, c.Status,
	)
	args := append([]interface{}{to, invoiceID, from}, extraArgs...)

	rows, err := exec.ExecWithResult(ctx, query, args...)
	if err != nil {
		r.Log.Error("failed to advance transaction status",
			"error", err,
			"invoice_id", invoiceID,
			"from", from,
			"to", to,
		)
		return false, fmt.Errorf("failed to advance status: %w", err)
	}
	if rows == 1 {
		r.Log.Debug("transaction status advanced", "invoice_id", invoiceID, "from", from, "to", to)
		return true, nil
	}

	// 0 строк: либо уже в to (повтор), либо статус другой, либо записи нет
	current, err := r.getByInvoiceID(ctx, exec, invoiceID)
	if err != nil {
		return false, err
	}
	if current.Status == to {
		return false, nil
	}
	return false, fmt.Errorf("%w: %s is %s, expected %s", domain.ErrInvalidTransition, invoiceID, current.Status, from)
}

// CompleteWithRecipient paid → completed и счётчики пользователя в одной транзакции
func (r *Repository) CompleteWithRecipient(ctx context.Context, invoiceID string, recipientTag string, stars int64, amount decimal.Decimal) (bool, error) {
	var applied bool

	err := r.db.WithTransaction(ctx, func(ctx context.Context, tx persistence.Transaction) error {
		var err error
		extraSet := fmt.Sprintf("%s = $4, %s = NOW()", r.txCols.RecipientTag, r.txCols.CompletedAt)
		applied, err = r.advance(ctx, tx, invoiceID, domain.TransactionStatusPaid, domain.TransactionStatusCompleted, extraSet, recipientTag)
		if err != nil || !applied {
			return err
		}

		u := r.usrCols
		query := fmt.Sprintf(`UPDATE %s SET %s = %s + $1, %s = %s + $2, %s = NOW()
			WHERE %s = (SELECT %s FROM %s WHERE %s = $3)`,
			u.TableName,
			u.TotalStars, u.TotalStars,
			u.TotalSpent, u.TotalSpent,
			u.UpdatedAt,
			u.ID, r.txCols.UserID, r.txCols.TableName, r.txCols.InvoiceID,
		)
		rows, err := tx.ExecWithResult(ctx, query, stars, amount, invoiceID)
		if err != nil {
			return fmt.Errorf("failed to update user counters: %w", err)
		}
		if rows != 1 {
			return fmt.Errorf("update user counters: %w", domain.ErrUserNotFound)
		}
		return nil
	})
	if err != nil {
		r.Log.Error("failed to complete transaction", "error", err, "invoice_id", invoiceID)
		return false, err
	}

	if applied {
		r.Log.Info("transaction completed",
			"invoice_id", invoiceID,
			"recipient", recipientTag,
			"stars", stars,
		)
	}
	return applied, nil
}

// MarkRefunded paid → refunded, повтор - no-op
func (r *Repository) MarkRefunded(ctx context.Context, invoiceID string) error {
	_, err := r.advance(ctx, r.db, invoiceID, domain.TransactionStatusPaid, domain.TransactionStatusRefunded, "")
	return err
}

// MarkFailed created|paid → failed с причиной, повтор - no-op
func (r *Repository) MarkFailed(ctx context.Context, invoiceID string, reason string) error {
	current, err := r.GetByInvoiceID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if current.Status == domain.TransactionStatusFailed {
		return nil
	}

	extraSet := fmt.Sprintf("%s = $4", r.txCols.ErrorMessage)
	_, err = r.advance(ctx, r.db, invoiceID, current.Status, domain.TransactionStatusFailed, extraSet, reason)
	return err
}
