// Package sentiment classifies the emotional tone of a journal message.
//
// Classification tries the completion model first, then a lexical analyzer,
// and finally settles on a neutral default, so Classify always yields a
// result.
package sentiment

import "math"

type Label string

const (
	Positive Label = "positive"
	Neutral  Label = "neutral"
	Negative Label = "negative"
)

// LabelThreshold is the polarity magnitude above which a message stops being
// neutral. It applies to every tier.
const LabelThreshold = 0.15

// Source names the tier that produced a Result.
type Source string

const (
	SourceModel   Source = "model"
	SourceLexical Source = "lexical"
	SourceDefault Source = "default"
)

// Result is one classification. Polarity is in [-1, 1], Score is the same
// value mapped to [0, 1]; both are rounded to two decimals.
type Result struct {
	Polarity float64 `json:"polarity"`
	Score    float64 `json:"score"`
	Label    Label   `json:"label"`
	Source   Source  `json:"-"`
}

// FromPolarity derives a Result from a raw polarity. Values outside [-1, 1]
// are clamped first. The label is taken from the unrounded polarity.
func FromPolarity(p float64, source Source) Result {
	p = clamp(p, -1, 1)
	label := Neutral
	switch {
	case p > LabelThreshold:
		label = Positive
	case p < -LabelThreshold:
		label = Negative
	}
	return Result{
		Polarity: round2(p),
		Score:    round2(clamp((p+1)/2, 0, 1)),
		Label:    label,
		Source:   source,
	}
}

// NeutralResult is the terminal fallback: score 0.5, polarity 0.
func NeutralResult() Result {
	return Result{Polarity: 0, Score: 0.5, Label: Neutral, Source: SourceDefault}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	r := math.Round(v*100) / 100
	if r == 0 {
		// normalise -0
		return 0
	}
	return r
}
