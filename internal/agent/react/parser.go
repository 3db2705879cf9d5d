package react

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"campus-assistant/internal/domain/entity"
)

const maxActionInputLen = 200

var (
	actionRe      = regexp.MustCompile(`(?i)Action:\s*([\w-]+)`)
	actionInputRe = regexp.MustCompile(`(?is)Action Input:\s*["']?(.+?)["']?\s*(?:\n\s*(?:Observation|Thought|Final Answer|Action)\s*:|\z)`)
	finalAnswerRe = regexp.MustCompile(`(?is)Final Answer:\s*(.+)`)
	thoughtRe     = regexp.MustCompile(`(?is)Thought:\s*(.+?)(?:\n\s*(?:Action|Final Answer)\s*:|\z)`)
	markerRe      = regexp.MustCompile(`(?im)^\s*(?:Observation|Thought)\s*:.*$`)
)

// Known aliases models produce for the registered tool names.
var actionAliases = map[string]string{
	"websearch":     entity.ToolWebSearch,
	"search":        entity.ToolWebSearch,
	"web":           entity.ToolWebSearch,
	"databasequery": entity.ToolDatabaseQuery,
	"database":      entity.ToolDatabaseQuery,
	"query":         entity.ToolDatabaseQuery,
	"db":            entity.ToolDatabaseQuery,
}

// Parse turns one raw completion into a ParsedStep.
//
// The Action marker takes precedence over the Final Answer marker no matter
// where either appears: a model that announces a tool call and a final answer
// in the same turn must still perform the tool call. This is the loop's core
// guard against fabricated answers.
func Parse(raw string, tools map[string]bool) entity.ParsedStep {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return entity.ParsedStep{Kind: entity.ParsedMalformed, Raw: raw}
	}

	thought := extractThought(trimmed)

	if m := actionRe.FindStringSubmatch(trimmed); m != nil {
		name := normalizeAction(m[1])
		if !tools[name] {
			return entity.ParsedStep{Kind: entity.ParsedMalformed, Thought: thought, Raw: raw}
		}
		input := extractActionInput(trimmed)
		if input == "" {
			return entity.ParsedStep{Kind: entity.ParsedMalformed, Thought: thought, Raw: raw}
		}
		return entity.ParsedStep{
			Kind:        entity.ParsedAction,
			Thought:     thought,
			ActionName:  name,
			ActionInput: input,
			Raw:         raw,
		}
	}

	if m := finalAnswerRe.FindStringSubmatch(trimmed); m != nil {
		answer := strings.TrimSpace(m[1])
		if answer == "" {
			return entity.ParsedStep{Kind: entity.ParsedMalformed, Thought: thought, Raw: raw}
		}
		return entity.ParsedStep{
			Kind:        entity.ParsedFinalAnswer,
			Thought:     thought,
			FinalAnswer: answer,
			Raw:         raw,
		}
	}

	return entity.ParsedStep{Kind: entity.ParsedMalformed, Thought: thought, Raw: raw}
}

func normalizeAction(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := actionAliases[lower]; ok {
		return canonical
	}
	return lower
}

func extractActionInput(text string) string {
	m := actionInputRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	input := strings.TrimSpace(m[1])
	// Models occasionally run a hallucinated Observation into the same line.
	input = markerRe.ReplaceAllString(input, "")
	input = strings.Trim(strings.TrimSpace(input), `"'`)
	if len(input) > maxActionInputLen {
		input = truncateRunes(input, maxActionInputLen)
	}
	return input
}

// truncateRunes cuts at a byte limit without splitting a multi-byte rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func extractThought(text string) string {
	if m := thoughtRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	// No explicit label: treat anything before the first marker as reasoning.
	idx := len(text)
	for _, re := range []*regexp.Regexp{actionRe, finalAnswerRe} {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] < idx {
			idx = loc[0]
		}
	}
	head := strings.TrimSpace(text[:idx])
	if len(strings.Fields(head)) > 3 {
		return head
	}
	return ""
}
