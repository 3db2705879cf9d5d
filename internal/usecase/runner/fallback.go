package runner

import (
	"context"
	"fmt"
	"strings"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"
)

// Words that carry no signal when checking whether lookup results actually
// answer the query.
var stopWords = map[string]bool{
	"what": true, "where": true, "when": true, "how": true, "who": true,
	"which": true, "is": true, "are": true, "was": true, "were": true,
	"the": true, "a": true, "an": true, "to": true, "for": true, "of": true,
	"in": true, "on": true, "at": true, "by": true, "with": true,
	"do": true, "does": true, "did": true, "can": true, "could": true,
	"would": true, "should": true, "will": true, "i": true, "me": true,
	"my": true, "need": true, "want": true, "get": true, "find": true,
	"about": true, "tell": true, "university": true, "enroll": true,
	"apply": true, "requirements": true, "requirement": true,
	"program": true, "course": true, "class": true,
}

var locationWords = []string{"where", "location", "building", "address", "directions", "located"}

// shouldFallback decides whether the runner must force a web search: the
// first tool consulted was the structured lookup and it either missed or
// returned records that do not cover the query. At most one forced fallback
// happens per run.
func (r *Runner) shouldFallback(cfg entity.RunConfig, transcript *entity.Transcript, question string, result *entity.ToolResult, done bool) bool {
	if !cfg.FallbackEnabled || done {
		return false
	}
	if result == nil || result.Source != entity.SourceStructuredLookup {
		return false
	}
	if transcript.FirstToolName() != entity.ToolDatabaseQuery {
		return false
	}
	if transcript.ToolInvoked(entity.ToolWebSearch) {
		return false
	}
	if !result.Found {
		return true
	}
	return cfg.RelevanceCheck && !isRelevant(question, result.Payload)
}

// isRelevant checks keyword overlap between the query and the lookup payload:
// if fewer than half the significant query words appear in the results, the
// lookup answered something else and the web is worth consulting.
func isRelevant(question, payload string) bool {
	obs := strings.ToLower(payload)
	var significant []string
	for _, word := range strings.Fields(strings.ToLower(question)) {
		word = strings.Trim(word, "?.,!")
		if len(word) > 2 && !stopWords[word] {
			significant = append(significant, word)
		} else if len(word) <= 2 && word != "" && isDigits(word) {
			// Short course numbers still matter ("CS 46").
			significant = append(significant, word)
		}
	}
	if len(significant) == 0 {
		return true
	}
	matches := 0
	for _, word := range significant {
		if strings.Contains(obs, word) {
			matches++
		}
	}
	return float64(matches) >= float64(len(significant))*0.5
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// forceWebSearch is the strict fallback variant: the runner invokes the web
// search itself instead of hoping the model decides to. The forced Action
// and Observation land in the transcript so the next completion reasons
// over real search output.
func (r *Runner) forceWebSearch(ctx context.Context, log output.LoggerPort, transcript *entity.Transcript, cfg entity.RunConfig, question string) {
	query := fallbackQuery(cfg.University, question)
	log.Info("lookup missed, forcing web search", "query", query)

	transcript.Append(entity.Step{
		Kind: entity.StepObservation,
		Text: "The database had no relevant answer. Searching the web for current information before answering.",
	})
	transcript.Append(entity.Step{
		Kind:      entity.StepAction,
		ToolName:  entity.ToolWebSearch,
		ToolInput: query,
	})
	r.dispatch(ctx, log, transcript, entity.ToolWebSearch, query)
}

// fallbackQuery reformulates the user question for the open web. Location
// questions get rephrased around the subject; everything else is the
// question itself, university-prefixed.
func fallbackQuery(university, question string) string {
	q := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(question), "?!."))
	lower := strings.ToLower(q)

	for _, w := range locationWords {
		if strings.Contains(lower, w) {
			// Drop whole words only: substring replacement would shred
			// subjects like "admissions" that happen to contain "is".
			drop := make(map[string]bool, len(locationWords)+5)
			for _, d := range locationWords {
				drop[d] = true
			}
			for _, d := range []string{"the", "is", "are", "what", strings.ToLower(university)} {
				drop[d] = true
			}
			var subject []string
			for _, word := range strings.Fields(lower) {
				word = strings.Trim(word, "?.,!")
				if word != "" && !drop[word] {
					subject = append(subject, word)
				}
			}
			if len(subject) > 0 {
				return fmt.Sprintf("%s %s office location address building", university, strings.Join(subject, " "))
			}
			break
		}
	}

	if university != "" && !strings.Contains(lower, strings.ToLower(university)) {
		return university + " " + q
	}
	return q
}
