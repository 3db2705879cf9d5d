package tool

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"
)

var courseCodeRe = regexp.MustCompile(`\b([A-Z]{2,4})\s*(\d{1,3}[A-Z]?)\b`)

type DatabaseQueryTool struct {
	search output.StructuredSearchPort
	logger output.LoggerPort
}

func NewDatabaseQueryTool(search output.StructuredSearchPort, logger output.LoggerPort) *DatabaseQueryTool {
	return &DatabaseQueryTool{search: search, logger: logger}
}

func (t *DatabaseQueryTool) Name() string { return entity.ToolDatabaseQuery }
func (t *DatabaseQueryTool) Description() string {
	return "Query the university knowledge database for official information"
}

func (t *DatabaseQueryTool) Execute(ctx context.Context, input string) (string, *entity.ToolResult, error) {
	res, err := t.search.Search(ctx, input)
	if err != nil {
		return "", nil, fmt.Errorf("database query: %w", err)
	}

	// When the query names a specific course, the hits must actually contain
	// that course. Nearby matches ("CMPE 255" for a "CMPE 999" question) are
	// a miss, not an answer.
	if code := extractCourseCode(input); code != "" && !containsCourse(res, code) {
		obs := fmt.Sprintf("No information found for %s in the database. This course may not be in our records. "+
			"Please check the official catalog or contact the %s department directly.",
			code, strings.Fields(code)[0])
		return obs, &entity.ToolResult{
			Source:  entity.SourceStructuredLookup,
			Found:   false,
			Payload: obs,
		}, nil
	}

	if !res.Found || len(res.Records) == 0 {
		obs := "No relevant information found in the database. This topic may not be in our records."
		return obs, &entity.ToolResult{
			Source:  entity.SourceStructuredLookup,
			Found:   false,
			Payload: obs,
		}, nil
	}

	var parts []string
	for i, rec := range res.Records {
		prefix := ""
		if i == 0 {
			prefix = ">>> MOST RELEVANT ANSWER >>> "
		}
		parts = append(parts, fmt.Sprintf("%sResult %d [%s] (relevance: %.2f):\n%s",
			prefix, i+1, rec.Category, rec.Score, rec.Content))
	}
	obs := strings.Join(parts, "\n\n")
	return obs, &entity.ToolResult{
		Source:  entity.SourceStructuredLookup,
		Found:   true,
		Payload: obs,
	}, nil
}

func extractCourseCode(query string) string {
	m := courseCodeRe.FindStringSubmatch(strings.ToUpper(query))
	if m == nil {
		return ""
	}
	return m[1] + " " + m[2]
}

func containsCourse(res *entity.LookupResult, code string) bool {
	compact := strings.ReplaceAll(code, " ", "")
	for _, rec := range res.Records {
		content := strings.ToUpper(rec.Content)
		if strings.Contains(content, code) || strings.Contains(strings.ReplaceAll(content, " ", ""), compact) {
			return true
		}
	}
	return false
}
