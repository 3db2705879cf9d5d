package di

import (
	"context"
	"fmt"
	"time"

	"campus-assistant/internal/adapter/tool"
	"campus-assistant/internal/application/port/input"
	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/application/service"
	"campus-assistant/internal/domain/entity"
	"campus-assistant/internal/infrastructure/knowledge"
	"campus-assistant/internal/infrastructure/llm"
	"campus-assistant/internal/infrastructure/logger"
	"campus-assistant/internal/infrastructure/prompts"
	"campus-assistant/internal/infrastructure/websearch/tavily"
	"campus-assistant/internal/usecase/runner"
)

type Config struct {
	Backend       string
	Model         string
	APIKey        string
	OllamaURL     string
	LLMTimeout    time.Duration
	TavilyAPIKey  string
	DBPath        string
	University    string
	MaxIterations int
	Fallback      bool
	TimeBudget    time.Duration
	Development   bool
}

type Container struct {
	Logger    output.LoggerPort
	Store     *knowledge.Store
	Tools     output.ToolRegistry
	Runner    input.QueryRunner
	RunConfig entity.RunConfig
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.New(cfg.Development)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := knowledge.Open(cfg.DBPath, log)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}

	completion, err := llm.Load(llm.LoadOptions{
		Backend:   llm.BackendType(cfg.Backend),
		Model:     cfg.Model,
		APIKey:    cfg.APIKey,
		ServerURL: cfg.OllamaURL,
		Timeout:   cfg.LLMTimeout,
	}, log)
	if err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("load completion backend: %w", err)
	}

	web := tavily.New(tavily.DefaultConfig(cfg.TavilyAPIKey), log)

	tools := service.NewToolRegistry()
	tools.Register(tool.NewDatabaseQueryTool(store, log))
	tools.Register(tool.NewWebSearchTool(web, log, cfg.University))

	renderer, err := prompts.NewRenderer(cfg.University)
	if err != nil {
		store.Close()
		log.Close()
		return nil, fmt.Errorf("create prompt renderer: %w", err)
	}

	runCfg := entity.DefaultRunConfig()
	runCfg.ToolNames = tools.Names()
	runCfg.FallbackEnabled = cfg.Fallback
	runCfg.TimeBudget = cfg.TimeBudget
	if cfg.MaxIterations > 0 {
		runCfg.MaxIterations = cfg.MaxIterations
	}
	if cfg.University != "" {
		runCfg.University = cfg.University
	}

	return &Container{
		Logger:    log,
		Store:     store,
		Tools:     tools,
		Runner:    runner.New(completion, tools, log, renderer.Render),
		RunConfig: runCfg,
	}, nil
}

func (c *Container) Close() {
	if c.Store != nil {
		c.Store.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
