package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpattn/reportimport/internal/db"
	"github.com/rpattn/reportimport/internal/domain"
)

// DefaultTable is the destination table used when none is configured.
const DefaultTable = "error_reports"

var errorReportColumns = []string{
	"clientId",
	"key",
	"modules",
	"origin",
	"reason",
	"agent",
	"records",
	"status",
	"ticket",
	"recommendedAction",
	"createdAt",
	"updatedAt",
}

type errorReportRepository struct {
	conn      db.Connection
	insertSQL string
}

// NewErrorReportRepository wires a repository over a single connection.
func NewErrorReportRepository(conn db.Connection, table string) ErrorReportRepository {
	if strings.TrimSpace(table) == "" {
		table = DefaultTable
	}
	return &errorReportRepository{
		conn:      conn,
		insertSQL: buildInsertSQL(conn.Dialect(), table),
	}
}

func (r *errorReportRepository) WithinBatch(ctx context.Context, fn func(ErrorReportBatch) error) error {
	return db.WithTx(ctx, r.conn, func(tx db.Tx) error {
		return fn(&errorReportBatch{tx: tx, insertSQL: r.insertSQL})
	})
}

type errorReportBatch struct {
	tx        db.Tx
	insertSQL string
}

func (b *errorReportBatch) Insert(ctx context.Context, report domain.ErrorReport) error {
	err := b.tx.Exec(ctx, b.insertSQL,
		report.ClientID,
		report.Key,
		report.Modules,
		string(report.Origin),
		string(report.Reason),
		report.Agent,
		report.Records,
		string(report.Status),
		nullable(report.Ticket),
		nullable(report.Action),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert error report %s: %w", report.ClientID, err)
	}
	return nil
}

func buildInsertSQL(dialect db.Dialect, table string) string {
	columns := make([]string, len(errorReportColumns))
	placeholders := make([]string, len(errorReportColumns))
	for i, column := range errorReportColumns {
		columns[i] = dialect.QuoteIdent(column)
		placeholders[i] = dialect.Placeholder(i + 1)
	}

	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		dialect.QuoteIdent(table),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

func nullable(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
