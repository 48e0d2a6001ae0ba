package repository

import (
	"context"

	"github.com/rpattn/reportimport/internal/domain"
)

// ErrorReportRepository appends error reports to the destination table.
type ErrorReportRepository interface {
	// WithinBatch runs fn inside one transaction and commits it when fn
	// returns nil. Commit failures wrap db.ErrCommit.
	WithinBatch(ctx context.Context, fn func(ErrorReportBatch) error) error
}

// ErrorReportBatch inserts reports into an open transaction. A failed
// Insert does not affect reports inserted before or after it.
type ErrorReportBatch interface {
	Insert(ctx context.Context, report domain.ErrorReport) error
}
