package series

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackresearch/tickersent/pkg/source"
)

func TestParseTimestampFormats(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
	}{
		{"datetime", "2024-01-02 15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"rfc3339", "2024-01-02T15:04:05Z", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"rfc3339 offset", "2024-01-02T15:04:05+02:00", time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)},
		{"rfc1123 named zone", "Tue, 02 Jan 2024 15:04:05 GMT", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"rfc1123 numeric zone", "Tue, 02 Jan 2024 15:04:05 +0200", time.Date(2024, 1, 2, 13, 4, 5, 0, time.UTC)},
		{"date only", "2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"epoch int", "1704207845", time.Unix(1704207845, 0).UTC()},
		{"epoch float", "1704207845.0", time.Unix(1704207845, 0).UTC()},
		{"whitespace", "  2024-01-02  ", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tt.in)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTimestampRejects(t *testing.T) {
	for _, in := range []string{"", "yesterday", "02/01/2024", "-123"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, "input %q", in)
	}
}

func TestNormalize(t *testing.T) {
	item, ok := Normalize(source.Record{
		Title: "Record quarter",
		Body:  "Earnings beat expectations.",
		Date:  "2024-01-02 09:30:00",
	})
	require.True(t, ok)
	assert.Equal(t, "Record quarter Earnings beat expectations.", item.Text)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), item.Timestamp)
}

func TestNormalizeTitleOnly(t *testing.T) {
	item, ok := Normalize(source.Record{Title: "Shares rally", Date: "2024-01-02"})
	require.True(t, ok)
	assert.Equal(t, "Shares rally", item.Text)
}

func TestNormalizeRejectsEmptyText(t *testing.T) {
	_, ok := Normalize(source.Record{Title: "   ", Body: "\t\n", Date: "2024-01-02"})
	assert.False(t, ok)
}

func TestNormalizeRejectsBadTimestamp(t *testing.T) {
	_, ok := Normalize(source.Record{Title: "Shares rally", Date: "not a date"})
	assert.False(t, ok)
}
