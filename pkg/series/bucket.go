package series

import (
	"fmt"
	"sort"
	"time"
)

// Policy selects how scored items are partitioned into time windows.
type Policy string

const (
	// PolicyTrailing anchors fixed-width windows to the lookback span ending
	// at the reference time.
	PolicyTrailing Policy = "trailing"
	// PolicyWeekly groups items by the Monday of their calendar week.
	PolicyWeekly Policy = "weekly"
	// PolicyISOWeek groups items by ISO year and week number.
	PolicyISOWeek Policy = "isoweek"
)

// ParsePolicy maps a configuration string to a Policy. Unknown names are a
// configuration error.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyTrailing, PolicyWeekly, PolicyISOWeek:
		return Policy(s), nil
	}
	return "", fmt.Errorf("unknown bucket policy %q", s)
}

// Partition splits items into ordered, labeled buckets. The result is always
// sorted ascending by window start regardless of input order; callers never
// re-sort. Zero items yield an empty slice. Empty windows may appear in the
// trailing policy's output; the aggregator drops them.
func Partition(items []ScoredItem, policy Policy, now time.Time, lookbackDays, intervalDays int) []Bucket {
	if len(items) == 0 {
		return []Bucket{}
	}

	switch policy {
	case PolicyTrailing:
		return partitionTrailing(items, now.UTC(), lookbackDays, intervalDays)
	case PolicyISOWeek:
		return partitionWeeks(items, isoWeekLabel)
	default:
		return partitionWeeks(items, mondayLabel)
	}
}

// partitionTrailing steps fixed half-open windows [cur, cur+interval) from
// now-lookback toward now. Labels are window start dates.
func partitionTrailing(items []ScoredItem, now time.Time, lookbackDays, intervalDays int) []Bucket {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	if intervalDays <= 0 {
		intervalDays = 7
	}

	var buckets []Bucket
	start := now.AddDate(0, 0, -lookbackDays)
	for cur := start; cur.Before(now); cur = cur.AddDate(0, 0, intervalDays) {
		end := cur.AddDate(0, 0, intervalDays)
		b := Bucket{
			Label: cur.Format("2006-01-02"),
			Start: cur,
			End:   end,
		}
		for _, it := range items {
			if !it.Timestamp.Before(cur) && it.Timestamp.Before(end) {
				b.Items = append(b.Items, it)
			}
		}
		buckets = append(buckets, b)
	}
	return buckets
}

// partitionWeeks groups items by the Monday of their week. Both week policies
// share the grouping (ISO weeks start on Monday); only the label differs.
func partitionWeeks(items []ScoredItem, label func(time.Time) string) []Bucket {
	groups := make(map[time.Time][]ScoredItem)
	for _, it := range items {
		groups[weekStart(it.Timestamp)] = append(groups[weekStart(it.Timestamp)], it)
	}

	buckets := make([]Bucket, 0, len(groups))
	for monday, group := range groups {
		buckets = append(buckets, Bucket{
			Label: label(monday),
			Start: monday,
			End:   monday.AddDate(0, 0, 7),
			Items: group,
		})
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})
	return buckets
}

// weekStart truncates t to the Monday of its week, at midnight UTC.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}

func mondayLabel(monday time.Time) string {
	return monday.Format("2006-01-02")
}

func isoWeekLabel(monday time.Time) string {
	year, week := monday.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
