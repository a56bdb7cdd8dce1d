package series

import "math"

// Aggregate computes the mean score of each non-empty bucket and serializes
// the result as two index-aligned sequences. Empty buckets are dropped here:
// the output never contains a label with no underlying data. Raw means are
// rounded to two decimals; with rescale the [-1,1] mean is mapped onto the
// 1-10 presentation scale.
func Aggregate(buckets []Bucket, rescale bool) Series {
	s := EmptySeries()
	for _, b := range buckets {
		if len(b.Items) == 0 {
			continue
		}

		sum := 0.0
		for _, it := range b.Items {
			sum += it.Score
		}
		mean := sum / float64(len(b.Items))

		value := round(mean, 2)
		if rescale {
			value = Rescale(mean)
		}

		s.Labels = append(s.Labels, b.Label)
		s.Values = append(s.Values, value)
	}
	return s
}

// Rescale maps a compound mean in [-1,1] onto [1,10], rounded to one decimal.
// The transform is a fixed contract: -1 -> 1.0, 0 -> 5.5, 1 -> 10.0.
func Rescale(mean float64) float64 {
	return round(((mean+1)/2)*9+1, 1)
}

// NeutralScore is the defined result for an empty batch: 0 on the raw
// compound scale, the 5.5 midpoint when rescaled.
func NeutralScore(rescale bool) float64 {
	if rescale {
		return Rescale(0)
	}
	return 0
}

func round(v float64, decimals int) float64 {
	shift := math.Pow(10, float64(decimals))
	return math.Round(v*shift) / shift
}
