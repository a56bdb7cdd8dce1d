// Package sentiment wraps the external polarity-scoring capability behind a
// small interface so the pipeline can be exercised with a fake analyzer.
package sentiment

import "github.com/jonreiter/govader"

// Analyzer maps a piece of text to a compound polarity score in [-1, 1].
// Implementations must be stateless and safe for concurrent use.
type Analyzer interface {
	Score(text string) float64
}

// VADER scores text with the VADER lexicon-based analyzer.
type VADER struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVADER creates a VADER analyzer.
func NewVADER() *VADER {
	return &VADER{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the compound polarity score for text.
func (v *VADER) Score(text string) float64 {
	return v.analyzer.PolarityScores(text).Compound
}

// Mean scores each text and returns the arithmetic mean. An empty batch
// yields the neutral score 0.
func Mean(a Analyzer, texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range texts {
		sum += a.Score(t)
	}
	return sum / float64(len(texts))
}
