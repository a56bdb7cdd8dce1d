package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fixedAnalyzer map[string]float64

func (f fixedAnalyzer) Score(text string) float64 { return f[text] }

func TestMean(t *testing.T) {
	a := fixedAnalyzer{"up": 0.6, "down": -0.2, "flat": 0.2}
	assert.InDelta(t, 0.2, Mean(a, []string{"up", "down", "flat"}), 1e-9)
}

func TestMeanEmptyBatchIsNeutral(t *testing.T) {
	a := fixedAnalyzer{}
	assert.Equal(t, 0.0, Mean(a, nil))
	assert.Equal(t, 0.0, Mean(a, []string{}))
}

func TestVADERPolarity(t *testing.T) {
	v := NewVADER()

	positive := v.Score("Fantastic earnings, the company is doing great")
	negative := v.Score("Terrible losses, an awful disaster for shareholders")

	assert.Greater(t, positive, 0.0)
	assert.Less(t, negative, 0.0)
	assert.LessOrEqual(t, positive, 1.0)
	assert.GreaterOrEqual(t, negative, -1.0)
}

func TestVADERDeterministic(t *testing.T) {
	v := NewVADER()
	text := "Shares rallied after the record quarter"
	assert.Equal(t, v.Score(text), v.Score(text))
}
