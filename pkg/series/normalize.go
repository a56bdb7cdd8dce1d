package series

import (
	"strconv"
	"strings"
	"time"

	"github.com/mackresearch/tickersent/pkg/source"
)

// Item is a normalized record candidate: canonical text plus a UTC instant.
// It has not been scored yet.
type Item struct {
	Timestamp time.Time
	Text      string
}

// timestampParser is one strategy for decoding a provider timestamp. Parsers
// are tried in priority order; the first success wins.
type timestampParser struct {
	name  string
	parse func(string) (time.Time, bool)
}

var timestampParsers = []timestampParser{
	{"datetime", parseLayout("2006-01-02 15:04:05")},
	{"rfc3339", parseRFC3339},
	{"rfc1123", parseLayout(time.RFC1123)},
	{"rfc1123z", parseLayout(time.RFC1123Z)},
	{"date", parseLayout("2006-01-02")},
	{"epoch", parseEpoch},
}

// Normalize converts a raw provider record into an Item. It rejects records
// whose concatenated text is empty after trimming, and records whose
// timestamp matches none of the accepted formats. A rejected record never
// reaches the scorer and never fails the batch.
func Normalize(rec source.Record) (Item, bool) {
	text := strings.TrimSpace(strings.TrimSpace(rec.Title) + " " + strings.TrimSpace(rec.Body))
	if text == "" {
		return Item{}, false
	}

	ts, ok := ParseTimestamp(rec.Date)
	if !ok {
		return Item{}, false
	}

	return Item{Timestamp: ts, Text: text}, true
}

// ParseTimestamp tries each accepted timestamp format in priority order and
// returns the parsed instant in UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, p := range timestampParsers {
		if t, ok := p.parse(s); ok {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func parseLayout(layout string) func(string) (time.Time, bool) {
	return func(s string) (time.Time, bool) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
}

func parseRFC3339(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// parseEpoch decodes Unix epoch seconds. Providers hand these over as
// integers or floats (Reddit's created_utc); both are accepted, interpreted
// as UTC.
func parseEpoch(s string) (time.Time, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return time.Time{}, false
	}
	return time.Unix(int64(f), 0), true
}
