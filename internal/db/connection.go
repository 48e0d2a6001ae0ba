package db

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCommit marks a failure to commit a transaction.
var ErrCommit = errors.New("failed to commit transaction")

// Tx is a single database transaction. A statement that fails inside Exec
// leaves the transaction usable for the statements that follow.
type Tx interface {
	Exec(ctx context.Context, query string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is one dedicated database session.
type Connection interface {
	Dialect() Dialect
	Begin(ctx context.Context) (Tx, error)
	Close(ctx context.Context) error
}

// NewConnection opens a single connection for the configured dialect and
// verifies it with a ping.
func NewConnection(ctx context.Context, config Config) (Connection, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch config.Dialect {
	case DialectPostgres:
		return connectPostgres(ctx, config)
	case DialectMySQL:
		return connectMySQL(ctx, config)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, config.Dialect)
	}
}

// WithTx executes a function within a database transaction
func WithTx(ctx context.Context, conn Connection, fn func(Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}

	return nil
}
