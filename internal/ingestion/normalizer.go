package ingestion

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rpattn/reportimport/internal/domain"

	"github.com/sirupsen/logrus"
)

// LoadStats counts what happened to the rows read from a source.
type LoadStats struct {
	RowsRead   int `json:"rowsRead"`
	Normalized int `json:"normalized"`
	// Skipped rows lack a client id or a numeric key.
	Skipped int `json:"skipped"`
	// Invalid rows failed unexpectedly while being normalized.
	Invalid int `json:"invalid"`
}

// Normalizer turns raw rows into error reports.
type Normalizer struct {
	logger logrus.FieldLogger
}

// NewNormalizer creates a normalizer that reports skipped rows to logger.
func NewNormalizer(logger logrus.FieldLogger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts a single row. ok is false when the row has to be
// skipped; err is set only for unexpected failures.
func (n *Normalizer) Normalize(row RawRow) (report domain.ErrorReport, ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			report, ok = domain.ErrorReport{}, false
			err = fmt.Errorf("row %d: unexpected failure: %v", row.Number, p)
		}
	}()

	cell := func(idx int) string {
		return strings.TrimSpace(row.Cells[idx])
	}

	clientID := cell(colClientID)
	if clientID == "" {
		return domain.ErrorReport{}, false, nil
	}

	rawKey := cell(colKey)
	key, fractional, valid := parseKey(rawKey)
	if !valid {
		n.logger.WithFields(logrus.Fields{
			"row":       row.Number,
			"client_id": clientID,
			"key":       rawKey,
		}).Debug("skipping row without numeric key")
		return domain.ErrorReport{}, false, nil
	}
	if fractional {
		n.logger.WithFields(logrus.Fields{
			"row": row.Number,
			"key": rawKey,
		}).Debug("truncated fractional key")
	}

	return domain.ErrorReport{
		ClientID: clientID,
		Key:      key,
		Modules:  orDefault(cell(colModules), domain.DefaultModules),
		Origin:   domain.MapOrigin(orDefault(cell(colOrigin), domain.DefaultOrigin)),
		Reason:   domain.MapReason(orDefault(cell(colReason), domain.DefaultReason)),
		Agent:    orDefault(cell(colAgent), domain.DefaultAgent),
		Records:  cell(colRecords),
		Status:   domain.MapStatus(orDefault(cell(colStatus), domain.DefaultStatus)),
		Ticket:   domain.OptionalString(cell(colTicket)),
		Action:   domain.OptionalString(cell(colAction)),
	}, true, nil
}

// Collect drains src, keeping every row that normalizes cleanly. Only a
// read failure of the source itself is returned as an error.
func (n *Normalizer) Collect(src Source) ([]domain.ErrorReport, LoadStats, error) {
	var (
		reports []domain.ErrorReport
		stats   LoadStats
	)

	for src.Next() {
		row := src.Row()
		stats.RowsRead++

		report, ok, err := n.Normalize(row)
		if err != nil {
			stats.Invalid++
			n.logger.WithError(err).WithField("row", row.Number).Warn("failed to process row")
			continue
		}
		if !ok {
			stats.Skipped++
			continue
		}

		reports = append(reports, report)
		stats.Normalized++
	}

	if err := src.Err(); err != nil {
		return nil, stats, err
	}
	return reports, stats, nil
}

// parseKey truncates a numeric key toward zero. fractional reports whether
// digits were dropped.
func parseKey(raw string) (key string, fractional bool, ok bool) {
	if raw == "" {
		return "", false, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return "", false, false
	}

	truncated := math.Trunc(value)
	if truncated >= math.MaxInt64 || truncated < math.MinInt64 {
		return "", false, false
	}
	return strconv.FormatInt(int64(truncated), 10), truncated != value, true
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
