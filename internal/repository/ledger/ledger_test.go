package ledgerRepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/admin/tg-bots/stars-bot/internal/domain"
	"github.com/admin/tg-bots/stars-bot/internal/ports/persistence"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

type execCall struct {
	query string
	args  []interface{}
}

type fakeExecutor struct {
	GetFunc            func(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectFunc         func(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecFunc           func(ctx context.Context, query string, args ...interface{}) error
	ExecWithResultFunc func(ctx context.Context, query string, args ...interface{}) (int64, error)
	NamedExecFunc      func(ctx context.Context, query string, arg interface{}) error

	gets    []execCall
	selects []execCall
	execs   []execCall
}

func (f *fakeExecutor) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	f.gets = append(f.gets, execCall{query: query, args: args})
	if f.GetFunc != nil {
		return f.GetFunc(ctx, dest, query, args...)
	}
	return sql.ErrNoRows
}

func (f *fakeExecutor) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	f.selects = append(f.selects, execCall{query: query, args: args})
	if f.SelectFunc != nil {
		return f.SelectFunc(ctx, dest, query, args...)
	}
	return nil
}

func (f *fakeExecutor) Exec(ctx context.Context, query string, args ...interface{}) error {
	f.execs = append(f.execs, execCall{query: query, args: args})
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, query, args...)
	}
	return nil
}

func (f *fakeExecutor) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	if f.ExecWithResultFunc != nil {
		return f.ExecWithResultFunc(ctx, query, args...)
	}
	return 1, nil
}

func (f *fakeExecutor) NamedExec(ctx context.Context, query string, arg interface{}) error {
	f.execs = append(f.execs, execCall{query: query, args: []interface{}{arg}})
	if f.NamedExecFunc != nil {
		return f.NamedExecFunc(ctx, query, arg)
	}
	return nil
}

type fakeTx struct {
	*fakeExecutor
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit() error {
	t.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rollbacks++
	return nil
}

// fakeDB запросы вне транзакции идут в fakeExecutor, внутри WithTransaction в tx
type fakeDB struct {
	*fakeExecutor
	tx *fakeTx
}

func newFakeDB() *fakeDB {
	exec := &fakeExecutor{}
	return &fakeDB{fakeExecutor: exec, tx: &fakeTx{fakeExecutor: exec}}
}

func (d *fakeDB) BeginTx(context.Context) (persistence.Transaction, error) {
	return d.tx, nil
}

func (d *fakeDB) WithTransaction(ctx context.Context, fn func(context.Context, persistence.Transaction) error) error {
	if err := fn(ctx, d.tx); err != nil {
		_ = d.tx.Rollback()
		return err
	}
	return d.tx.Commit()
}

func newTestRepo() (*Repository, *fakeDB) {
	db := newFakeDB()
	return New(db, slog.New(slog.NewTextHandler(io.Discard, nil))), db
}

// storedStatus GetFunc, отдающий транзакцию в статусе status
func storedStatus(status domain.TransactionStatus) func(context.Context, interface{}, string, ...interface{}) error {
	return func(_ context.Context, dest interface{}, _ string, args ...interface{}) error {
		tx := dest.(*domain.Transaction)
		*tx = domain.Transaction{InvoiceID: fmt.Sprint(args[0]), Status: status}
		return nil
	}
}

func TestRepository_AdvanceStatus(t *testing.T) {
	errConn := errors.New("connection reset")

	tests := []struct {
		name        string
		from, to    domain.TransactionStatus
		rows        int64
		execErr     error
		stored      func(context.Context, interface{}, string, ...interface{}) error
		wantApplied bool
		wantErr     error
		wantExecs   int
		wantGets    int
	}{
		{
			name: "applied",
			from: domain.TransactionStatusCreated, to: domain.TransactionStatusPaid,
			rows: 1, wantApplied: true, wantExecs: 1,
		},
		{
			name: "already in target status",
			from: domain.TransactionStatusCreated, to: domain.TransactionStatusPaid,
			stored: storedStatus(domain.TransactionStatusPaid), wantExecs: 1, wantGets: 1,
		},
		{
			name: "moved elsewhere",
			from: domain.TransactionStatusCreated, to: domain.TransactionStatusPaid,
			stored:  storedStatus(domain.TransactionStatusFailed),
			wantErr: domain.ErrInvalidTransition, wantExecs: 1, wantGets: 1,
		},
		{
			name: "no such invoice",
			from: domain.TransactionStatusCreated, to: domain.TransactionStatusPaid,
			wantErr: domain.ErrTransactionNotFound, wantExecs: 1, wantGets: 1,
		},
		{
			name: "exec error",
			from: domain.TransactionStatusPaid, to: domain.TransactionStatusRefunded,
			execErr: errConn, wantErr: errConn, wantExecs: 1,
		},
		{
			name: "edge not in table",
			from: domain.TransactionStatusCompleted, to: domain.TransactionStatusPaid,
			wantErr: domain.ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, db := newTestRepo()
			db.ExecWithResultFunc = func(context.Context, string, ...interface{}) (int64, error) {
				return tt.rows, tt.execErr
			}
			db.GetFunc = tt.stored

			applied, err := repo.AdvanceStatus(context.Background(), "inv-1", tt.from, tt.to)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("AdvanceStatus() error = %v", err)
			}
			if applied != tt.wantApplied {
				t.Errorf("applied = %v, want %v", applied, tt.wantApplied)
			}
			if len(db.execs) != tt.wantExecs || len(db.gets) != tt.wantGets {
				t.Errorf("execs = %d, gets = %d, want %d/%d", len(db.execs), len(db.gets), tt.wantExecs, tt.wantGets)
			}
		})
	}
}

func TestRepository_AdvanceToPaidSetsPaidAt(t *testing.T) {
	repo, db := newTestRepo()

	if _, err := repo.AdvanceStatus(context.Background(), "inv-1", domain.TransactionStatusCreated, domain.TransactionStatusPaid); err != nil {
		t.Fatal(err)
	}
	q := db.execs[0].query
	if !strings.Contains(q, "paid_at = NOW()") || !strings.Contains(q, "status = $3") {
		t.Fatalf("unexpected query: %s", q)
	}
	args := db.execs[0].args
	if args[0] != domain.TransactionStatusPaid || args[1] != "inv-1" || args[2] != domain.TransactionStatusCreated {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestRepository_InsertTransaction(t *testing.T) {
	errConn := errors.New("connection reset")

	tests := []struct {
		name    string
		execErr error
		wantErr error
		notErr  error
	}{
		{name: "inserted"},
		{
			name:    "unique violation",
			execErr: fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505", ConstraintName: "transactions_invoice_id_key"}),
			wantErr: domain.ErrDuplicateInvoice,
		},
		{
			name:    "other pg error",
			execErr: &pgconn.PgError{Code: "23503"},
			notErr:  domain.ErrDuplicateInvoice,
		},
		{
			name:    "connection error",
			execErr: errConn,
			wantErr: errConn,
			notErr:  domain.ErrDuplicateInvoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, db := newTestRepo()
			db.NamedExecFunc = func(context.Context, string, interface{}) error { return tt.execErr }

			err := repo.InsertTransaction(context.Background(), &domain.Transaction{
				UserID:    1,
				Stars:     100,
				Amount:    decimal.RequireFromString("160"),
				InvoiceID: "inv-1",
			})
			if tt.execErr == nil {
				if err != nil {
					t.Fatalf("InsertTransaction() error = %v", err)
				}
				if !strings.Contains(db.execs[0].query, "'created'") {
					t.Fatalf("insert must force created status: %s", db.execs[0].query)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.notErr != nil && errors.Is(err, tt.notErr) {
				t.Fatalf("error must not be %v: %v", tt.notErr, err)
			}
		})
	}
}

func TestRepository_CompleteWithRecipient(t *testing.T) {
	tests := []struct {
		name          string
		rows          []int64
		stored        func(context.Context, interface{}, string, ...interface{}) error
		wantApplied   bool
		wantErr       error
		wantExecs     int
		wantCommits   int
		wantRollbacks int
	}{
		{
			name:        "completed with counters",
			rows:        []int64{1, 1},
			wantApplied: true, wantExecs: 2, wantCommits: 1,
		},
		{
			name:    "user row missing",
			rows:    []int64{1, 0},
			wantErr: domain.ErrUserNotFound, wantExecs: 2, wantRollbacks: 1,
		},
		{
			name:      "already completed",
			rows:      []int64{0},
			stored:    storedStatus(domain.TransactionStatusCompleted),
			wantExecs: 1, wantCommits: 1,
		},
		{
			name:      "refunded meanwhile",
			rows:      []int64{0},
			stored:    storedStatus(domain.TransactionStatusRefunded),
			wantErr:   domain.ErrInvalidTransition,
			wantExecs: 1, wantRollbacks: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, db := newTestRepo()
			call := 0
			db.ExecWithResultFunc = func(context.Context, string, ...interface{}) (int64, error) {
				n := tt.rows[call]
				call++
				return n, nil
			}
			db.GetFunc = tt.stored

			applied, err := repo.CompleteWithRecipient(context.Background(), "inv-1", "alice", 100, decimal.RequireFromString("160"))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("CompleteWithRecipient() error = %v", err)
			}
			if applied != tt.wantApplied {
				t.Errorf("applied = %v, want %v", applied, tt.wantApplied)
			}
			if len(db.execs) != tt.wantExecs {
				t.Errorf("execs = %d, want %d", len(db.execs), tt.wantExecs)
			}
			if db.tx.commits != tt.wantCommits || db.tx.rollbacks != tt.wantRollbacks {
				t.Errorf("commits = %d, rollbacks = %d, want %d/%d", db.tx.commits, db.tx.rollbacks, tt.wantCommits, tt.wantRollbacks)
			}
		})
	}
}

func TestRepository_MarkFailed(t *testing.T) {
	tests := []struct {
		name      string
		current   domain.TransactionStatus
		wantFrom  domain.TransactionStatus
		wantExecs int
		wantErr   error
	}{
		{name: "from created", current: domain.TransactionStatusCreated, wantFrom: domain.TransactionStatusCreated, wantExecs: 1},
		{name: "from paid", current: domain.TransactionStatusPaid, wantFrom: domain.TransactionStatusPaid, wantExecs: 1},
		{name: "already failed", current: domain.TransactionStatusFailed},
		{name: "completed cannot fail", current: domain.TransactionStatusCompleted, wantErr: domain.ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, db := newTestRepo()
			db.GetFunc = storedStatus(tt.current)

			err := repo.MarkFailed(context.Background(), "inv-1", "invoice expired")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("MarkFailed() error = %v", err)
			}
			if len(db.execs) != tt.wantExecs {
				t.Fatalf("execs = %d, want %d", len(db.execs), tt.wantExecs)
			}
			if tt.wantExecs == 0 {
				return
			}
			args := db.execs[0].args
			if args[0] != domain.TransactionStatusFailed || args[2] != tt.wantFrom || args[3] != "invoice expired" {
				t.Fatalf("unexpected args: %v", args)
			}
			if !strings.Contains(db.execs[0].query, "error_message = $4") {
				t.Fatalf("reason not written: %s", db.execs[0].query)
			}
		})
	}
}

func TestRepository_MarkFailedUnknownInvoice(t *testing.T) {
	repo, db := newTestRepo()

	if err := repo.MarkFailed(context.Background(), "missing", "x"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if len(db.execs) != 0 {
		t.Fatalf("execs = %d, want 0", len(db.execs))
	}
}

func TestRepository_ListByStatus(t *testing.T) {
	repo, db := newTestRepo()
	from := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	to := from.Add(time.Hour)

	if _, err := repo.ListByStatus(context.Background(), domain.TransactionStatusCreated, from, to, 50); err != nil {
		t.Fatal(err)
	}
	call := db.selects[0]
	if !strings.Contains(call.query, "created_at >= $2") || !strings.Contains(call.query, "created_at < $3") {
		t.Fatalf("bounds missing: %s", call.query)
	}
	if !strings.Contains(call.query, "ORDER BY updated_at, created_at LIMIT $4") {
		t.Fatalf("unexpected order/limit: %s", call.query)
	}
	if len(call.args) != 4 || call.args[3] != 50 {
		t.Fatalf("unexpected args: %v", call.args)
	}

	if _, err := repo.ListByStatus(context.Background(), domain.TransactionStatusPaid, time.Time{}, time.Time{}, 0); err != nil {
		t.Fatal(err)
	}
	if q := db.selects[1].query; strings.Contains(q, "created_at >=") || strings.Contains(q, "LIMIT") {
		t.Fatalf("zero bounds must not filter: %s", q)
	}
}

func TestRepository_Touch(t *testing.T) {
	repo, db := newTestRepo()
	db.ExecWithResultFunc = func(context.Context, string, ...interface{}) (int64, error) { return 0, nil }

	if err := repo.Touch(context.Background(), "missing"); !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Fatalf("expected ErrTransactionNotFound, got %v", err)
	}
	if !strings.Contains(db.execs[0].query, "updated_at = NOW()") {
		t.Fatalf("unexpected query: %s", db.execs[0].query)
	}
}
