package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type stubPool struct {
	tx  pgx.Tx
	err error
}

func (p *stubPool) Begin(context.Context) (pgx.Tx, error) {
	return p.tx, p.err
}

type stubTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *stubTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *stubTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

func TestTxManagerBegin(t *testing.T) {
	inner := &stubTx{}
	manager := newTxManagerWithPool(&stubPool{tx: inner})

	tx, err := manager.Begin(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if !inner.committed {
		t.Error("commit did not reach the wrapped transaction")
	}
}

func TestTxManagerBeginError(t *testing.T) {
	beginErr := errors.New("begin failed")
	manager := newTxManagerWithPool(&stubPool{err: beginErr})

	if _, err := manager.Begin(context.Background()); !errors.Is(err, beginErr) {
		t.Fatalf("expected begin error, got %v", err)
	}
}

func TestTxRollback(t *testing.T) {
	inner := &stubTx{}
	manager := newTxManagerWithPool(&stubPool{tx: inner})

	tx, _ := manager.Begin(context.Background())
	if err := tx.Rollback(context.Background()); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	if !inner.rolledBack {
		t.Error("rollback did not reach the wrapped transaction")
	}
}
