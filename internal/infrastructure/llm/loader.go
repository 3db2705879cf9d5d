package llm

import (
	"fmt"
	"time"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/infrastructure/llm/ollamalocal"
	"campus-assistant/internal/infrastructure/llm/openaicompat"
)

type BackendType string

const (
	BackendGroq       BackendType = "groq"
	BackendMistral    BackendType = "mistral"
	BackendOpenRouter BackendType = "openrouter"
	BackendOllama     BackendType = "ollama"
)

type LoadOptions struct {
	Backend   BackendType
	Model     string
	APIKey    string
	ServerURL string
	Timeout   time.Duration
}

// Load selects a completion backend. Hosted backends share the OpenAI wire
// format; "ollama" talks to a local server.
func Load(opts LoadOptions, logger output.LoggerPort) (output.CompletionPort, error) {
	switch opts.Backend {
	case BackendGroq:
		return newHosted(opts, openaicompat.GroqBaseURL, "llama-3.3-70b-versatile", logger), nil
	case BackendMistral:
		return newHosted(opts, openaicompat.MistralBaseURL, "mistral-small-latest", logger), nil
	case BackendOpenRouter:
		return newHosted(opts, openaicompat.OpenRouterBaseURL, "meta-llama/llama-3.3-70b-instruct", logger), nil
	case BackendOllama:
		cfg := ollamalocal.DefaultConfig(opts.Model)
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		if opts.ServerURL != "" {
			cfg.ServerURL = opts.ServerURL
		}
		if opts.Timeout > 0 {
			cfg.Timeout = opts.Timeout
		}
		return ollamalocal.New(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported completion backend %q", opts.Backend)
	}
}

func newHosted(opts LoadOptions, baseURL, defaultModel string, logger output.LoggerPort) output.CompletionPort {
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	cfg := openaicompat.DefaultConfig(opts.APIKey, model, baseURL)
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	return openaicompat.New(cfg, logger)
}
