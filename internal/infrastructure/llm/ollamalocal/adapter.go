package ollamalocal

import (
	"context"
	"fmt"
	"time"

	"campus-assistant/internal/application/port/output"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

var _ output.CompletionPort = (*Adapter)(nil)

// Local inference is an order of magnitude slower than the hosted APIs, so
// the default timeout is wider.
const defaultTimeout = 2 * time.Minute

type Config struct {
	Model     string
	ServerURL string
	MaxTokens int
	Timeout   time.Duration
}

func DefaultConfig(model string) Config {
	return Config{
		Model:     model,
		ServerURL: "http://localhost:11434",
		MaxTokens: 1024,
		Timeout:   defaultTimeout,
	}
}

// Adapter runs completions against a local Ollama server.
type Adapter struct {
	llm    *ollama.LLM
	cfg    Config
	logger output.LoggerPort
}

func New(cfg Config, logger output.LoggerPort) (*Adapter, error) {
	llm, err := ollama.New(
		ollama.WithModel(cfg.Model),
		ollama.WithServerURL(cfg.ServerURL),
	)
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Adapter{llm: llm, cfg: cfg, logger: logger}, nil
}

func (a *Adapter) ModelName() string { return a.cfg.Model }

func (a *Adapter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	start := time.Now()
	text, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
		llms.WithTemperature(0),
		llms.WithMaxTokens(a.cfg.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("ollama completion failed: %w", err)
	}

	a.logger.Debug("completion received",
		"model", a.cfg.Model,
		"prompt_len", len(prompt),
		"duration_ms", time.Since(start).Milliseconds())
	return text, nil
}
