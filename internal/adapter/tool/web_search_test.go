package tool

import (
	"context"
	"errors"
	"strings"
	"testing"

	"campus-assistant/internal/domain/entity"
	"campus-assistant/internal/infrastructure/logger"
)

type stubWebSearch struct {
	result  *entity.WebSearchResult
	err     error
	queries []string
}

func (s *stubWebSearch) Search(_ context.Context, query string) (*entity.WebSearchResult, error) {
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestWebSearch_FormatsSummaryAndSources(t *testing.T) {
	search := &stubWebSearch{result: &entity.WebSearchResult{
		Summary: "CMPE 999 is not a listed course.",
		Sources: []entity.WebSource{
			{Title: "SJSU Catalog", URL: "https://catalog.sjsu.edu", Snippet: "Course listings for the CMPE department."},
			{Title: "Department FAQ", URL: "https://www.sjsu.edu/cmpe/faq", Snippet: "Common questions."},
		},
	}}
	ws := NewWebSearchTool(search, logger.NewNop(), "SJSU")

	obs, result, err := ws.Execute(context.Background(), "SJSU CMPE 999 prerequisites")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if !result.Found {
		t.Error("expected found=true")
	}
	if result.Source != entity.SourceWebSearch {
		t.Errorf("expected web_search source, got %s", result.Source)
	}
	if !strings.HasPrefix(obs, "Summary: CMPE 999 is not a listed course.") {
		t.Errorf("expected summary first, got %q", obs)
	}
	if !strings.Contains(obs, "Result 1:\nTitle: SJSU Catalog\nURL: https://catalog.sjsu.edu") {
		t.Errorf("missing first result in %q", obs)
	}
	if len(result.Citations) != 2 || result.Citations[0] != "https://catalog.sjsu.edu" {
		t.Errorf("expected source URLs as citations, got %v", result.Citations)
	}
}

func TestWebSearch_ScopesQueryToUniversity(t *testing.T) {
	search := &stubWebSearch{result: &entity.WebSearchResult{}}
	ws := NewWebSearchTool(search, logger.NewNop(), "SJSU")

	if _, _, err := ws.Execute(context.Background(), "parking permit cost"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if search.queries[0] != "SJSU parking permit cost" {
		t.Errorf("expected university prefix, got %q", search.queries[0])
	}

	if _, _, err := ws.Execute(context.Background(), "sjsu parking permit cost"); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if search.queries[1] != "sjsu parking permit cost" {
		t.Errorf("expected no double prefix, got %q", search.queries[1])
	}
}

func TestWebSearch_EmptyResults(t *testing.T) {
	search := &stubWebSearch{result: &entity.WebSearchResult{}}
	ws := NewWebSearchTool(search, logger.NewNop(), "SJSU")

	obs, result, err := ws.Execute(context.Background(), "something obscure")
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	if result.Found {
		t.Error("expected found=false for empty results")
	}
	if obs != "No search results found." {
		t.Errorf("unexpected observation %q", obs)
	}
	if len(result.Citations) != 0 {
		t.Errorf("expected no citations, got %v", result.Citations)
	}
}

func TestWebSearch_ProviderErrorPropagates(t *testing.T) {
	search := &stubWebSearch{err: errors.New("rate limited")}
	ws := NewWebSearchTool(search, logger.NewNop(), "SJSU")

	_, _, err := ws.Execute(context.Background(), "library hours")
	if err == nil {
		t.Fatal("expected error")
	}
}
