package openaicompat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"campus-assistant/internal/application/port/output"

	"github.com/sashabaranov/go-openai"
)

var _ output.CompletionPort = (*Adapter)(nil)

// Known OpenAI-compatible endpoints. Groq and Mistral are the hosted
// backends the assistant ships with; OpenRouter proxies most others.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	MistralBaseURL    = "https://api.mistral.ai/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	defaultTimeout = 30 * time.Second
)

type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func DefaultConfig(apiKey, model, baseURL string) Config {
	return Config{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   baseURL,
		MaxTokens: 1024,
		Timeout:   defaultTimeout,
	}
}

// Adapter is the hosted text-completion capability over the OpenAI wire
// format.
type Adapter struct {
	client *openai.Client
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) *Adapter {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	return &Adapter{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

func (a *Adapter) ModelName() string { return a.cfg.Model }

func (a *Adapter) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	a.logger.Debug("completion received",
		"model", a.cfg.Model,
		"prompt_len", len(prompt),
		"duration_ms", time.Since(start).Milliseconds())
	return resp.Choices[0].Message.Content, nil
}
