package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxrag/internal/config"
	"taxrag/internal/models"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// Client wraps an eino chat model behind the three completion modes the
// engine needs: plain, tool-calling and structured JSON output. Every call
// runs under a deadline so a hung provider cannot stall a turn forever.
type Client struct {
	chatModel model.ToolCallingChatModel
	timeout   time.Duration
}

// New builds a Client for the configured provider.
func New(cfg *config.Config, provider string) (*Client, error) {
	provCfg, ok := cfg.Providers[provider]
	if !ok {
		return nil, &models.ValidationError{Field: "provider", Reason: fmt.Sprintf("%s not configured", provider)}
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch provider {
	case "openai":
		chatModel, err = openai.NewChatModel(context.Background(), &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey: provCfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(context.Background(), &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(context.Background(), &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, &models.ValidationError{Field: "provider", Reason: fmt.Sprintf("unsupported provider %s", provider)}
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return NewWithModel(chatModel, cfg.LLMDeadline()), nil
}

// NewWithModel wraps an already constructed chat model. Tests use this to
// substitute a scripted model.
func NewWithModel(chatModel model.ToolCallingChatModel, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = time.Duration(config.DefaultLLMTimeout) * time.Second
	}
	return &Client{chatModel: chatModel, timeout: timeout}
}

// Complete runs one plain generation.
func (c *Client) Complete(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.chatModel.Generate(ctx, msgs, opts...)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "llm", Err: err}
	}
	return resp, nil
}

// CompleteWithTools binds the given tools and runs one generation; the
// response either carries content or tool calls.
func (c *Client) CompleteWithTools(ctx context.Context, msgs []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	bound, err := c.chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := bound.Generate(ctx, msgs)
	if err != nil {
		return nil, &models.ExternalServiceError{Service: "llm", Err: err}
	}
	return resp, nil
}

// CompleteStructured runs one generation at temperature 0 and decodes the
// response into out. Output that is not the requested JSON shape surfaces as
// a SchemaViolationError and is never coerced into a default.
func (c *Client) CompleteStructured(ctx context.Context, msgs []*schema.Message, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	resp, err := c.chatModel.Generate(ctx, msgs, model.WithTemperature(0))
	if err != nil {
		return &models.ExternalServiceError{Service: "llm", Err: err}
	}
	return DecodeStrict(resp.Content, out)
}

// DecodeStrict parses model output as a single JSON object, tolerating only
// a surrounding markdown code fence.
func DecodeStrict(raw string, out any) error {
	cleaned := StripCodeFence(raw)
	if err := unmarshalJSON(cleaned, out); err != nil {
		return &models.SchemaViolationError{Raw: raw, Err: err}
	}
	return nil
}

// StripCodeFence removes a wrapping ```json ... ``` block if present.
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
