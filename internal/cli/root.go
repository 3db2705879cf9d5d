package cli

import (
	"time"

	"campus-assistant/internal/di"
	"campus-assistant/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var (
	flagBackend  string
	flagModel    string
	flagDBPath   string
	flagMaxIters int
	flagDevel    bool
)

func Execute() error {
	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Campus assistant: answers university questions from a knowledge base with web-search fallback",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagBackend, "backend", "", "completion backend: groq, mistral, openrouter, ollama")
	root.PersistentFlags().StringVar(&flagModel, "model", "", "model name override")
	root.PersistentFlags().StringVar(&flagDBPath, "db", "", "path to the SQLite knowledge base")
	root.PersistentFlags().IntVar(&flagMaxIters, "max-iterations", 0, "reasoning iteration limit")
	root.PersistentFlags().BoolVar(&flagDevel, "dev", false, "development logging")

	root.AddCommand(newAskCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSeedCmd())
	root.AddCommand(newEvalCmd())
	return root.Execute()
}

// containerConfig merges flags over environment configuration. Flags win.
func containerConfig() di.Config {
	envService := env.NewEnvService()

	cfg := di.Config{
		Backend:       envService.GetWithDefault("LLM_BACKEND", "groq"),
		Model:         envService.Get("LLM_MODEL"),
		OllamaURL:     envService.GetWithDefault("OLLAMA_BASE_URL", "http://localhost:11434"),
		LLMTimeout:    envService.GetDuration("LLM_TIMEOUT", 0),
		TavilyAPIKey:  envService.Get("TAVILY_API_KEY"),
		DBPath:        envService.GetWithDefault("DB_PATH", "./data/assistant.db"),
		University:    envService.GetWithDefault("UNIVERSITY", "SJSU"),
		MaxIterations: envService.GetInt("MAX_ITERATIONS", 0),
		Fallback:      envService.GetBool("FALLBACK_ENABLED", true),
		TimeBudget:    envService.GetDuration("TIME_BUDGET", time.Minute),
		Development:   envService.GetBool("DEV_LOGGING", false),
	}

	switch cfg.Backend {
	case "groq":
		cfg.APIKey = envService.Get("GROQ_API_KEY")
	case "mistral":
		cfg.APIKey = envService.Get("MISTRAL_API_KEY")
	case "openrouter":
		cfg.APIKey = envService.Get("OPENROUTER_API_KEY")
	}

	if flagBackend != "" {
		cfg.Backend = flagBackend
	}
	if flagModel != "" {
		cfg.Model = flagModel
	}
	if flagDBPath != "" {
		cfg.DBPath = flagDBPath
	}
	if flagMaxIters > 0 {
		cfg.MaxIterations = flagMaxIters
	}
	if flagDevel {
		cfg.Development = true
	}
	return cfg
}
