package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type mysqlConnection struct {
	db *sql.DB
}

func connectMySQL(ctx context.Context, config Config) (*mysqlConnection, error) {
	driverConfig := mysql.NewConfig()
	driverConfig.User = config.User
	driverConfig.Passwd = config.Password
	driverConfig.Net = "tcp"
	driverConfig.Addr = config.Address()
	driverConfig.DBName = config.DBName
	driverConfig.ParseTime = true

	connector, err := mysql.NewConnector(driverConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	handle := sql.OpenDB(connector)
	// One session for the whole batch.
	handle.SetMaxOpenConns(1)
	handle.SetMaxIdleConns(1)

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &mysqlConnection{db: handle}, nil
}

func (c *mysqlConnection) Dialect() Dialect { return DialectMySQL }

func (c *mysqlConnection) Begin(ctx context.Context) (Tx, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (c *mysqlConnection) Close(_ context.Context) error {
	return c.db.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, query, args...)
	return err
}

func (t *sqlTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *sqlTx) Rollback(_ context.Context) error {
	return t.tx.Rollback()
}
