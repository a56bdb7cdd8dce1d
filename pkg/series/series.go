// Package series implements the sentiment aggregation pipeline: raw record
// normalization, time bucketing, per-bucket averaging, and multi-source
// fallback coordination.
package series

import "time"

// ScoredItem is a timestamped compound polarity score. Timestamps are always
// UTC; items are immutable once created.
type ScoredItem struct {
	Timestamp time.Time
	Score     float64
}

// Bucket is a labeled half-open time window [Start, End) with its
// contributing items.
type Bucket struct {
	Label string
	Start time.Time
	End   time.Time
	Items []ScoredItem
}

// Series is the externally visible artifact: two index-aligned sequences
// sorted ascending by the time each label denotes. Slices are non-nil so the
// JSON encoding of an empty series is [] rather than null.
type Series struct {
	Labels []string  `json:"date"`
	Values []float64 `json:"avg_score"`
}

// EmptySeries returns a well-formed zero-length series.
func EmptySeries() Series {
	return Series{Labels: []string{}, Values: []float64{}}
}
