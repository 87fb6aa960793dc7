// Package mood maps a sentiment classification to a short descriptive tag pair.
package mood

import "moodlog/internal/sentiment"

// Tag returns the mood tags for a label and its rounded polarity. The bands
// are strict: a positive polarity of exactly 0.7 is "hopeful, encouraged".
func Tag(label sentiment.Label, polarity float64) string {
	switch label {
	case sentiment.Positive:
		switch {
		case polarity > 0.7:
			return "joyful, optimistic"
		case polarity > 0.4:
			return "hopeful, encouraged"
		default:
			return "content, stable"
		}
	case sentiment.Negative:
		switch {
		case polarity < -0.7:
			return "overwhelmed, distressed"
		case polarity < -0.4:
			return "struggling, anxious"
		default:
			return "uncertain, low"
		}
	default:
		return "calm, reflective"
	}
}

// ForResult tags a classification result.
func ForResult(r sentiment.Result) string {
	return Tag(r.Label, r.Polarity)
}
