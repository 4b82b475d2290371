package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Batcher groups inserts into transactions of a fixed number of rows. Only
// one transaction is open at a time: reaching the batch size commits it and
// the next insert opens another.
type Batcher struct {
	db    *DB
	size  int
	tx    *sql.Tx
	stmts map[string]*sql.Stmt

	pending int
	rows    int
	batches int
}

// NewBatcher returns a Batcher committing every size rows. A size below
// one commits every row.
func (db *DB) NewBatcher(size int) *Batcher {
	if size < 1 {
		size = 1
	}
	return &Batcher{db: db, size: size}
}

func (b *Batcher) begin(ctx context.Context) error {
	if b.tx != nil {
		return nil
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	b.tx = tx
	b.stmts = make(map[string]*sql.Stmt)
	return nil
}

// Insert adds one row to the open batch, committing it when it is full.
func (b *Batcher) Insert(ctx context.Context, table string, columns []string, args ...any) error {
	if err := b.begin(ctx); err != nil {
		return err
	}
	key := table + "(" + strings.Join(columns, ",") + ")"
	stmt, ok := b.stmts[key]
	if !ok {
		var err error
		stmt, err = b.tx.PrepareContext(ctx, b.db.dialect.InsertStatement(table, columns))
		if err != nil {
			return fmt.Errorf("prepare %s: %w", table, err)
		}
		b.stmts[key] = stmt
	}
	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}

	b.pending++
	if b.pending >= b.size {
		return b.Flush(ctx)
	}
	return nil
}

// Exec runs a statement inside the open batch without counting it as a row.
func (b *Batcher) Exec(ctx context.Context, query string, args ...any) error {
	if err := b.begin(ctx); err != nil {
		return err
	}
	if _, err := b.tx.ExecContext(ctx, b.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("exec in batch: %w", err)
	}
	return nil
}

// Flush commits the open batch, if any.
func (b *Batcher) Flush(ctx context.Context) error {
	if b.tx == nil {
		return nil
	}
	if err := b.tx.Commit(); err != nil {
		b.tx = nil
		b.pending = 0
		return fmt.Errorf("commit batch: %w", err)
	}
	if b.pending > 0 {
		b.rows += b.pending
		b.batches++
		b.db.logger.Debug("batch committed", "rows", b.pending, "total", b.rows)
	}
	b.tx = nil
	b.stmts = nil
	b.pending = 0
	return nil
}

// Rollback discards the open batch. Batches already committed stay committed.
func (b *Batcher) Rollback() error {
	if b.tx == nil {
		return nil
	}
	err := b.tx.Rollback()
	b.tx = nil
	b.stmts = nil
	b.pending = 0
	if err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("rollback batch: %w", err)
	}
	return nil
}

// Committed returns the number of rows and batches committed so far.
func (b *Batcher) Committed() (rows, batches int) {
	return b.rows, b.batches
}
