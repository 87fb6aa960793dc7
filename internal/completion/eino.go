package completion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"moodlog/internal/config"
)

const (
	defaultTimeout  = 30 * time.Second
	// claude requires a default; each request overrides it with model.WithMaxTokens
	claudeMaxTokens = 1024
	defaultOpenAI   = "gpt-4o"
	defaultClaude   = "claude-3-5-haiku-latest"
	defaultGemini   = "gemini-2.0-flash"
)

// Client sends completion requests through an eino chat model.
type Client struct {
	chatModel model.BaseChatModel
	timeout   time.Duration
}

// NewClient builds the chat model for provider (openai, claude or gemini).
func NewClient(ctx context.Context, provider string, pc config.ProviderConfig, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(pc.APIKey) == "" {
		return nil, ErrNotConfigured
	}
	var (
		chatModel model.BaseChatModel
		err       error
	)
	switch strings.ToLower(provider) {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: pc.BaseURL,
			Model:   orDefault(pc.Model, defaultOpenAI),
			APIKey:  pc.APIKey,
			Timeout: timeout,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: pc.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  orDefault(pc.Model, defaultGemini),
		})
	case "claude":
		var baseURLPtr *string
		if pc.BaseURL != "" {
			baseURLPtr = &pc.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    pc.APIKey,
			Model:     orDefault(pc.Model, defaultClaude),
			BaseURL:   baseURLPtr,
			MaxTokens: claudeMaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	slog.Info("[Completion] chat model ready", slog.String("provider", provider), slog.Duration("timeout", timeout))
	return NewWithModel(chatModel, timeout), nil
}

// NewWithModel wraps an existing chat model.
func NewWithModel(chatModel model.BaseChatModel, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{chatModel: chatModel, timeout: timeout}
}

// Complete issues one non-streaming generation bounded by the client timeout.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c == nil || c.chatModel == nil {
		return "", ErrNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var opts []model.Option
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}
	if req.Temperature != nil {
		opts = append(opts, model.WithTemperature(*req.Temperature))
	}
	resp, err := c.chatModel.Generate(ctx, toSchemaMessages(req), opts...)
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(resp.Content), nil
}

func toSchemaMessages(req Request) []*schema.Message {
	messages := make([]*schema.Message, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, &schema.Message{Role: schema.System, Content: req.System})
	}
	for _, turn := range req.Turns {
		role := schema.User
		if turn.Role == RoleAssistant {
			role = schema.Assistant
		}
		messages = append(messages, &schema.Message{Role: role, Content: turn.Content})
	}
	return messages
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
