package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jonreiter/govader"

	"moodlog/internal/completion"
)

const (
	modelMaxTokens   = 100
	modelTemperature = 0.3

	modelSystemPrompt = "You are an expert at understanding emotional tone and sentiment in text."
)

// verdict is the JSON object the model is asked to return.
type verdict struct {
	Score     *float64 `json:"score" jsonschema:"required,minimum=-1,maximum=1,description=Polarity from -1 (very negative) to 1 (very positive)"`
	Reasoning string   `json:"reasoning,omitempty" jsonschema:"description=Brief explanation"`
}

var verdictSchema = buildVerdictSchema()

func buildVerdictSchema() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	raw, err := json.Marshal(reflector.Reflect(&verdict{}))
	if err != nil {
		panic(err)
	}
	return string(raw)
}

var (
	errEmptyText  = errors.New("empty text")
	errNoScore    = errors.New("model verdict has no score")
	errNoJSON     = errors.New("model output contains no JSON object")
	errOutOfRange = errors.New("model score outside [-1, 1]")
)

// Classifier runs the tier chain: model, lexical, neutral default.
type Classifier struct {
	completer completion.Completer
	analyzer  *govader.SentimentIntensityAnalyzer
}

func NewClassifier(completer completion.Completer) *Classifier {
	if completer == nil {
		completer = completion.Disabled{}
	}
	analyzer := govader.NewSentimentIntensityAnalyzer()
	for word, valence := range journalLexicon {
		analyzer.Lexicon[word] = valence
	}
	return &Classifier{
		completer: completer,
		analyzer:  analyzer,
	}
}

// Classify never fails. Tier errors are logged and the next tier is tried.
func (c *Classifier) Classify(ctx context.Context, text string) Result {
	res, err := c.classifyModel(ctx, text)
	if err == nil {
		return res
	}
	slog.Debug("[Sentiment] model tier failed", slog.Any("err", err))

	res, err = c.classifyLexical(text)
	if err == nil {
		return res
	}
	slog.Debug("[Sentiment] lexical tier failed", slog.Any("err", err))
	return NeutralResult()
}

func (c *Classifier) classifyModel(ctx context.Context, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, errEmptyText
	}
	out, err := c.completer.Complete(ctx, completion.Request{
		System:      modelSystemPrompt,
		Turns:       []completion.Turn{{Role: completion.RoleUser, Content: buildModelPrompt(text)}},
		MaxTokens:   modelMaxTokens,
		Temperature: completion.Temperature(modelTemperature),
	})
	if err != nil {
		return Result{}, err
	}
	score, err := parseVerdict(out)
	if err != nil {
		return Result{}, err
	}
	return FromPolarity(score, SourceModel), nil
}

func buildModelPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze the emotional sentiment of this message on a scale from -1 (very negative) to 1 (very positive).\n\n")
	fmt.Fprintf(&b, "Message: %q\n\n", text)
	b.WriteString("Respond with ONLY a JSON object matching this schema:\n")
	b.WriteString(verdictSchema)
	b.WriteString("\n\nExamples:\n")
	b.WriteString(`- "Things are going well" -> {"score": 0.7, "reasoning": "Positive outlook"}` + "\n")
	b.WriteString(`- "I'm feeling overwhelmed" -> {"score": -0.6, "reasoning": "Stressed and struggling"}` + "\n")
	b.WriteString(`- "Feeling anxious" -> {"score": -0.5, "reasoning": "Worried and uneasy"}` + "\n")
	b.WriteString(`- "I need someone to talk to" -> {"score": -0.3, "reasoning": "Seeking support, mild distress"}`)
	return b.String()
}

// parseVerdict accepts the bare object or one wrapped in prose or code fences.
func parseVerdict(out string) (float64, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return 0, errNoJSON
	}
	var v verdict
	if err := json.Unmarshal([]byte(out[start:end+1]), &v); err != nil {
		return 0, fmt.Errorf("decode model verdict: %w", err)
	}
	if v.Score == nil {
		return 0, errNoScore
	}
	if *v.Score < -1 || *v.Score > 1 {
		return 0, fmt.Errorf("%w: %v", errOutOfRange, *v.Score)
	}
	return *v.Score, nil
}
