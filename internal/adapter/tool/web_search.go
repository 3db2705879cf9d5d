package tool

import (
	"context"
	"fmt"
	"strings"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"
)

type WebSearchTool struct {
	search     output.WebSearchPort
	logger     output.LoggerPort
	university string
}

func NewWebSearchTool(search output.WebSearchPort, logger output.LoggerPort, university string) *WebSearchTool {
	return &WebSearchTool{search: search, logger: logger, university: university}
}

func (t *WebSearchTool) Name() string { return entity.ToolWebSearch }
func (t *WebSearchTool) Description() string {
	return "Search the web for current university information not in the database"
}

func (t *WebSearchTool) Execute(ctx context.Context, input string) (string, *entity.ToolResult, error) {
	query := strings.TrimSpace(input)
	if t.university != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(t.university)) {
		query = t.university + " " + query
	}

	res, err := t.search.Search(ctx, query)
	if err != nil {
		return "", nil, fmt.Errorf("web search: %w", err)
	}

	var b strings.Builder
	var citations []string

	if res.Summary != "" {
		b.WriteString("Summary: " + res.Summary + "\n\n")
	}
	for i, src := range res.Sources {
		fmt.Fprintf(&b, "Result %d:\nTitle: %s\nURL: %s\nContent: %s\n\n", i+1, src.Title, src.URL, src.Snippet)
		citations = append(citations, src.URL)
	}

	obs := strings.TrimSpace(b.String())
	found := obs != ""
	if !found {
		obs = "No search results found."
	}
	return obs, &entity.ToolResult{
		Source:    entity.SourceWebSearch,
		Found:     found,
		Payload:   obs,
		Citations: citations,
	}, nil
}
