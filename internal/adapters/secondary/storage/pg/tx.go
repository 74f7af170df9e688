package pg

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// executor общие запросы поверх *sqlx.DB и *sqlx.Tx
type executor struct {
	ext sqlx.ExtContext
}

func (e executor) Get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, e.ext, dest, query, args...)
}

func (e executor) Select(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, e.ext, dest, query, args...)
}

func (e executor) Exec(ctx context.Context, query string, args ...interface{}) error {
	_, err := e.ext.ExecContext(ctx, query, args...)
	return err
}

// ExecWithResult возвращает количество затронутых строк: на нём держатся условные переходы статусов
func (e executor) ExecWithResult(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := e.ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// NamedExec именованный запрос по db-тегам структуры
func (e executor) NamedExec(ctx context.Context, query string, arg interface{}) error {
	_, err := sqlx.NamedExecContext(ctx, e.ext, query, arg)
	return err
}

// Tx транзакция поверх sqlx.Tx
type Tx struct {
	executor
	tx *sqlx.Tx
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
