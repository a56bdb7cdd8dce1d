package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackresearch/tickersent/pkg/source"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecords() []source.Record {
	return []source.Record{
		{Title: "earnings beat", Body: "strong quarter", Date: "2024-01-02 10:00:00"},
		{Title: "guidance cut", Body: "weak outlook", Date: "2024-01-03 10:00:00"},
	}
}

func TestInsertAndListRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceNews, sampleRecords()))

	records, err := s.ListRecords(ctx, ListOpts{Ticker: "NVDA"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "NVDA", records[0].Ticker)
	assert.Equal(t, string(source.SourceNews), records[0].Source)
}

func TestInsertRecordsDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceNews, sampleRecords()))
	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceNews, sampleRecords()))

	records, err := s.ListRecords(ctx, ListOpts{Ticker: "NVDA"})
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestListRecordsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceNews, sampleRecords()))
	require.NoError(t, s.InsertRecords(ctx, "AAPL", source.SourceStockTwits, []source.Record{
		{Title: "new phone", Date: "2024-01-04 10:00:00"},
	}))

	bySource, err := s.ListRecords(ctx, ListOpts{Source: source.SourceStockTwits})
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "AAPL", bySource[0].Ticker)

	limited, err := s.ListRecords(ctx, ListOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestFetchLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.LogFetch(ctx, "NVDA", source.SourceNews, 12, nil))
	require.NoError(t, s.LogFetch(ctx, "NVDA", source.SourceReddit, 0, errors.New("rate limited")))

	logs, err := s.ListFetchLog(ctx, "NVDA", 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	var failed FetchLog
	for _, l := range logs {
		if l.Source == string(source.SourceReddit) {
			failed = l
		}
	}
	assert.Equal(t, "rate limited", failed.Error)
	assert.Equal(t, 0, failed.Count)
}

func TestCountBySource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceNews, sampleRecords()))
	require.NoError(t, s.InsertRecords(ctx, "NVDA", source.SourceRSS, []source.Record{
		{Title: "markets wrap", Date: "2024-01-05 10:00:00"},
	}))

	counts, err := s.CountBySource(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[source.SourceNews])
	assert.Equal(t, 1, counts[source.SourceRSS])
	assert.Zero(t, counts[source.SourceStockTwits])
}
