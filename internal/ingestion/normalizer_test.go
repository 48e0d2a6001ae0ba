package ingestion

import (
	"testing"

	"github.com/rpattn/reportimport/internal/domain"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawRow(number int, cells ...string) RawRow {
	return RawRow{Number: number, Cells: padRow(cells, RowWidth)}
}

func newTestNormalizer() (*Normalizer, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewNormalizer(logger), hook
}

func TestNormalizeFullRow(t *testing.T) {
	n, _ := newTestNormalizer()

	report, ok, err := n.Normalize(rawRow(4,
		" clinicaluminacb ", "01/05", "1700000000", "Agenda, Financeiro", "Onbording",
		"Cliente (Base)", "Ana", "12 registros", "SLA Vencida", "https://tickets/77", "Reprocessar",
	))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, "clinicaluminacb", report.ClientID)
	assert.Equal(t, "1700000000", report.Key)
	assert.Equal(t, "Agenda, Financeiro", report.Modules)
	assert.Equal(t, domain.OriginOnboarding, report.Origin)
	assert.Equal(t, domain.ReasonClientBase, report.Reason)
	assert.Equal(t, "Ana", report.Agent)
	assert.Equal(t, "12 registros", report.Records)
	assert.Equal(t, domain.StatusSLAExpired, report.Status)
	require.NotNil(t, report.Ticket)
	assert.Equal(t, "https://tickets/77", *report.Ticket)
	require.NotNil(t, report.Action)
	assert.Equal(t, "Reprocessar", *report.Action)
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	n, _ := newTestNormalizer()

	report, ok, err := n.Normalize(rawRow(4, "C1", "", "7"))
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, domain.DefaultModules, report.Modules)
	assert.Equal(t, domain.OriginOther, report.Origin)
	assert.Equal(t, domain.ReasonInAnalysis, report.Reason)
	assert.Equal(t, domain.DefaultAgent, report.Agent)
	assert.Equal(t, "", report.Records)
	assert.Equal(t, domain.StatusOnTime, report.Status)
	assert.Nil(t, report.Ticket)
	assert.Nil(t, report.Action)
}

func TestNormalizeSkipsBlankClientID(t *testing.T) {
	n, hook := newTestNormalizer()

	for _, id := range []string{"", "   "} {
		_, ok, err := n.Normalize(rawRow(5, id, "", "10"))
		assert.NoError(t, err)
		assert.False(t, ok, "id %q", id)
	}
	for _, entry := range hook.AllEntries() {
		assert.NotEqual(t, logrus.ErrorLevel, entry.Level)
	}
}

func TestNormalizeSkipsInvalidKeys(t *testing.T) {
	n, _ := newTestNormalizer()

	for _, key := range []string{"", "abc", "12a", "NaN", "Inf", "-Infinity", "1e30"} {
		_, ok, err := n.Normalize(rawRow(4, "C1", "", key))
		assert.NoError(t, err)
		assert.False(t, ok, "key %q", key)
	}
}

func TestNormalizeTruncatesKeys(t *testing.T) {
	n, hook := newTestNormalizer()

	cases := map[string]string{
		"42.9":  "42",
		"42":    "42",
		"-3.7":  "-3",
		"-0.5":  "0",
		"1e3":   "1000",
		" 8.0 ": "8",
	}
	for raw, expected := range cases {
		report, ok, err := n.Normalize(rawRow(4, "C1", "", raw))
		require.NoError(t, err)
		require.True(t, ok, "key %q", raw)
		assert.Equal(t, expected, report.Key, "key %q", raw)
	}

	var truncated int
	for _, entry := range hook.AllEntries() {
		if entry.Message == "truncated fractional key" {
			truncated++
		}
	}
	assert.Equal(t, 3, truncated)
}

func TestNormalizeUnknownLabelsFallBack(t *testing.T) {
	n, _ := newTestNormalizer()

	report, ok, err := n.Normalize(rawRow(4, "C1", "", "1", "", "Produção", "Suporte", "", "", "Pendente"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, domain.OriginOther, report.Origin)
	assert.Equal(t, domain.ReasonInAnalysis, report.Reason)
	assert.Equal(t, domain.StatusOnTime, report.Status)
}

func TestNormalizeRecoversFromPanics(t *testing.T) {
	n, _ := newTestNormalizer()

	_, ok, err := n.Normalize(RawRow{Number: 9, Cells: []string{"C1"}})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "row 9")
}

func TestCollectCountsRows(t *testing.T) {
	n, hook := newTestNormalizer()
	src := &sliceSource{rows: []RawRow{
		rawRow(4, "C1", "", "10", "", "", "", "", "", "Crítico"),
		rawRow(5, "", "", "11"),
		rawRow(6, "C3", "", "not a number"),
		{Number: 7, Cells: []string{"C4"}},
		rawRow(8, "C5", "", "12"),
	}}

	reports, stats, err := n.Collect(src)
	require.NoError(t, err)

	assert.Equal(t, LoadStats{RowsRead: 5, Normalized: 2, Skipped: 2, Invalid: 1}, stats)
	require.Len(t, reports, 2)
	assert.Equal(t, "C1", reports[0].ClientID)
	assert.Equal(t, domain.StatusCritical, reports[0].Status)
	assert.Equal(t, "C5", reports[1].ClientID)

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel {
			warned = true
			assert.Equal(t, 7, entry.Data["row"])
		}
	}
	assert.True(t, warned)
}

func TestCollectReturnsSourceErrors(t *testing.T) {
	n, _ := newTestNormalizer()
	src := &sliceSource{rows: []RawRow{rawRow(4, "C1", "", "1")}, err: ErrFileFormat}

	_, stats, err := n.Collect(src)
	assert.ErrorIs(t, err, ErrFileFormat)
	assert.Equal(t, 1, stats.RowsRead)
}

type sliceSource struct {
	rows []RawRow
	pos  int
	err  error
}

func (s *sliceSource) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceSource) Row() RawRow { return s.rows[s.pos-1] }

func (s *sliceSource) Err() error { return s.err }

func (s *sliceSource) Close() error { return nil }
