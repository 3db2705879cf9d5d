package entity

import "time"

const (
	DefaultMaxIterations = 5
	ToolDatabaseQuery    = "database_query"
	ToolWebSearch        = "web_search"
)

// RunConfig is the immutable per-run configuration of the reasoning loop.
type RunConfig struct {
	MaxIterations   int
	ToolNames       map[string]bool
	FallbackEnabled bool
	RelevanceCheck  bool
	TimeBudget      time.Duration // zero means unbounded
	University      string
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		MaxIterations: DefaultMaxIterations,
		ToolNames: map[string]bool{
			ToolDatabaseQuery: true,
			ToolWebSearch:     true,
		},
		FallbackEnabled: true,
		RelevanceCheck:  true,
		University:      "SJSU",
	}
}
