package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/qexp/calstore/pkg/logger"
)

// DB is the subset of *sql.DB and *sql.Tx used by the catalog.
type DB interface {
	QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error)
}

var _ DB = &dbController{}

func newDBController(db *sql.DB, lggr logger.Logger) *dbController {
	return &dbController{base: db, lggr: lggr}
}

// dbController sends statements to the open transaction if there is one, to the database
// otherwise. It is not safe for concurrent use.
type dbController struct {
	tx   *sql.Tx
	base *sql.DB
	lggr logger.Logger
}

func (d *dbController) QueryContext(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	d.lggr.Debugw("Executing query", "query", q, "args", args, "inTransaction", d.tx != nil)
	if d.tx != nil {
		return d.tx.QueryContext(ctx, q, args...)
	}

	return d.base.QueryContext(ctx, q, args...)
}

func (d *dbController) ExecContext(ctx context.Context, q string, args ...any) (sql.Result, error) {
	d.lggr.Debugw("Executing statement", "query", q, "args", args, "inTransaction", d.tx != nil)
	if d.tx != nil {
		return d.tx.ExecContext(ctx, q, args...)
	}

	return d.base.ExecContext(ctx, q, args...)
}

// Fixture performs an Exec but ignores the result.
func (d *dbController) Fixture(ctx context.Context, q string, args ...any) error {
	_, err := d.ExecContext(ctx, q, args...)
	return err
}

func (d *dbController) Begin(ctx context.Context) error {
	if d.tx != nil {
		return errors.New("transaction already started")
	}
	tx, err := d.base.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	d.tx = tx

	return nil
}

func (d *dbController) Commit() error {
	if d.tx == nil {
		return errors.New("no transaction to commit")
	}
	defer func() {
		d.tx = nil
	}()

	return d.tx.Commit()
}

func (d *dbController) Rollback() error {
	if d.tx == nil {
		return errors.New("no transaction to roll back")
	}
	defer func() {
		d.tx = nil
	}()

	return d.tx.Rollback()
}
