package sentiment

import (
	"errors"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/russross/blackfriday/v2"
)

var (
	errNoLetters = errors.New("text has no words to score")

	linkPattern = regexp.MustCompile(`\[(.*?)\]\((https?:\/\/[^\s\)]+)\)`)
	urlPattern  = regexp.MustCompile(`https?://\S+|www\.\S+`)
	tagPattern  = regexp.MustCompile(`<[^>]*>`)
)

// journalLexicon overrides or extends VADER's lexicon for words common in
// check-ins. Valences use VADER's -4..4 scale.
var journalLexicon = map[string]float64{
	"overwhelmed":  -2.5,
	"overwhelming": -2.2,
	"struggling":   -1.8,
	"struggle":     -1.6,
	"stressed":     -1.9,
	"drained":      -1.7,
	"exhausted":    -1.8,
	"hopeless":     -2.6,
	"isolated":     -1.7,
	"disconnected": -1.4,
	"stuck":        -1.3,
	"numb":         -1.2,
	"restless":     -1.1,
	"uneasy":       -1.3,
	"grounded":     1.2,
	"steady":       0.9,
	"proud":        2.0,
	"motivated":    1.6,
	"energized":    1.8,
	"grateful":     2.1,
	"accomplished": 1.8,
}

func (c *Classifier) classifyLexical(text string) (Result, error) {
	plain := plainText(text)
	if strings.TrimSpace(plain) == "" {
		return Result{}, errEmptyText
	}
	if !strings.ContainsFunc(plain, unicode.IsLetter) {
		return Result{}, errNoLetters
	}
	return FromPolarity(c.analyzer.PolarityScores(plain).Compound, SourceLexical), nil
}

// plainText renders markdown and drops links so only prose is scored.
func plainText(input string) string {
	rendered := blackfriday.Run([]byte(input), blackfriday.WithNoExtensions())
	text := html.UnescapeString(tagPattern.ReplaceAllString(string(rendered), " "))
	text = linkPattern.ReplaceAllString(text, "$1")
	text = urlPattern.ReplaceAllString(text, "")
	// the renderer curls apostrophes; VADER's negations are spelled straight
	text = strings.ReplaceAll(text, "\u2019", "'")
	return strings.Join(strings.Fields(text), " ")
}
