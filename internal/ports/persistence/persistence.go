package persistence

import "context"

// Executor общий набор запросов для БД и для транзакции
type Executor interface {
	Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Exec(ctx context.Context, query string, args ...interface{}) error
	ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error)
	NamedExec(ctx context.Context, query string, arg interface{}) error
}

// Transaction транзакция БД
type Transaction interface {
	Executor
	Commit() error
	Rollback() error
}

// Persistence доступ к БД с поддержкой транзакций
type Persistence interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	WithTransaction(ctx context.Context, fn func(context.Context, Transaction) error) error
}
