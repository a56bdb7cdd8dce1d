package source

import (
	"context"
	"time"
)

// SourceType identifies which provider a record came from.
type SourceType string

const (
	SourceNews       SourceType = "news"
	SourceStockTwits SourceType = "stocktwits"
	SourceReddit     SourceType = "reddit"
	SourceRSS        SourceType = "rss"
)

// Record is a raw provider record. Date keeps the provider's native
// encoding (datetime string, ISO date, or epoch seconds) so the pipeline
// normalizer can apply its parser strategies uniformly.
type Record struct {
	Title string `json:"title" db:"title"`
	Body  string `json:"body" db:"body"`
	Date  string `json:"date" db:"date"`
}

// Adapter is the interface every provider must implement. Fetch returns an
// empty slice (never nil) when the provider has no data, and a non-nil error
// on transport or payload failures.
type Adapter interface {
	Name() SourceType
	Fetch(ctx context.Context, ticker string, since time.Time) ([]Record, error)
}

// AllSourceTypes returns all known source types.
func AllSourceTypes() []SourceType {
	return []SourceType{
		SourceNews,
		SourceStockTwits,
		SourceReddit,
		SourceRSS,
	}
}

// ParseSourceType maps a name to a known SourceType.
func ParseSourceType(name string) (SourceType, bool) {
	for _, st := range AllSourceTypes() {
		if string(st) == name {
			return st, true
		}
	}
	return "", false
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
