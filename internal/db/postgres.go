package db

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5"
)

type pgConnection struct {
	conn *pgx.Conn
}

func connectPostgres(ctx context.Context, config Config) (*pgConnection, error) {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(config.User, config.Password),
		Host:   config.Address(),
		Path:   "/" + config.DBName,
	}
	if config.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": {config.SSLMode}}.Encode()
	}

	connConfig, err := pgx.ParseConfig(dsn.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &pgConnection{conn: conn}, nil
}

func (c *pgConnection) Dialect() Dialect { return DialectPostgres }

func (c *pgConnection) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (c *pgConnection) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}

// pgTx runs every statement in its own savepoint; postgres otherwise aborts
// the whole transaction on the first failed statement.
type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, query string, args ...any) error {
	savepoint, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}

	if _, err := savepoint.Exec(ctx, query, args...); err != nil {
		if rbErr := savepoint.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("statement error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := savepoint.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
