package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/reportimport/internal/domain"
	"github.com/rpattn/reportimport/internal/repository"

	"github.com/sirupsen/logrus"
)

// progressEvery is how many imported reports pass between progress logs.
const progressEvery = 10

// Service imports error reports from spreadsheets.
type Service struct {
	logger     logrus.FieldLogger
	normalizer *Normalizer
	source     SourceOptions
	now        func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the clock used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new ingestion service.
func NewService(logger logrus.FieldLogger, source SourceOptions, opts ...Option) *Service {
	s := &Service{
		logger:     logger,
		normalizer: NewNormalizer(logger),
		source:     source,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary returns import level metrics.
type Summary struct {
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// PreviewResult shows what an import would write without touching the database.
type PreviewResult struct {
	Stats   LoadStats            `json:"stats"`
	Reports []domain.ErrorReport `json:"reports"`
}

// Load reads the file at path and returns its normalized reports in sheet order.
func (s *Service) Load(path string) ([]domain.ErrorReport, LoadStats, error) {
	src, err := OpenSource(path, s.source)
	if err != nil {
		return nil, LoadStats{}, err
	}
	defer func() {
		if err := src.Close(); err != nil {
			s.logger.WithError(err).Warn("failed to close source file")
		}
	}()

	return s.normalizer.Collect(src)
}

// Write inserts every report in a single transaction and commits once.
// Insert failures are logged and counted; the returned error is set only
// when the batch as a whole could not be committed.
func (s *Service) Write(ctx context.Context, repo repository.ErrorReportRepository, reports []domain.ErrorReport) (Summary, error) {
	var summary Summary

	err := repo.WithinBatch(ctx, func(batch repository.ErrorReportBatch) error {
		for _, report := range reports {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("import interrupted: %w", err)
			}

			if err := batch.Insert(ctx, report.Stamp(s.now())); err != nil {
				summary.Failed++
				s.logger.WithError(err).WithField("client_id", report.ClientID).Error("failed to import report")
				continue
			}

			summary.Imported++
			if summary.Imported%progressEvery == 0 {
				s.logger.WithField("imported", summary.Imported).Info("import in progress")
			}
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	return summary, nil
}

// Preview returns up to limit reports together with the load stats.
func Preview(reports []domain.ErrorReport, stats LoadStats, limit int) PreviewResult {
	if limit <= 0 {
		limit = 10
	}
	if len(reports) > limit {
		reports = reports[:limit]
	}
	return PreviewResult{
		Stats:   stats,
		Reports: append(make([]domain.ErrorReport, 0, len(reports)), reports...),
	}
}
