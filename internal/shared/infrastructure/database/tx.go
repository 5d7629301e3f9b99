package database

import (
	"context"
	"errors"
)

// ErrNoTransaction is returned by Commit and Rollback outside Begin.
var ErrNoTransaction = errors.New("no transaction in context")

type txKey struct{}

type txState struct {
	tx    Transaction
	owned bool
}

func withTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txState{tx: tx, owned: owned})
}

func txFrom(ctx context.Context) (txState, bool) {
	s, ok := ctx.Value(txKey{}).(txState)
	return s, ok && s.tx != nil
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := txFrom(ctx)
	return ok
}

// ExecutorFromContext returns the transaction in ctx, or conn outside one.
// Repositories call it so they join a unit of work without knowing about it.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if s, ok := txFrom(ctx); ok {
		return s.tx
	}
	return conn
}

// UnitOfWork starts transactions on a connection. A Begin inside an existing
// transaction joins it, and only the outermost unit commits or rolls back.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a UnitOfWork on conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if s, ok := txFrom(ctx); ok {
		return withTx(ctx, s.tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return withTx(ctx, tx, true), nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	s, ok := txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owned {
		return nil
	}
	return s.tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	s, ok := txFrom(ctx)
	if !ok {
		return ErrNoTransaction
	}
	if !s.owned {
		return nil
	}
	return s.tx.Rollback(ctx)
}

// RunInTx runs fn in the transaction already in ctx, or in a new one that is
// committed when fn succeeds.
func RunInTx(ctx context.Context, conn Connection, fn func(ctx context.Context) error) error {
	u := NewUnitOfWork(conn)
	txCtx, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		_ = u.Rollback(txCtx)
		return err
	}
	return u.Commit(txCtx)
}
