package runner

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campus-assistant/internal/agent/react"
	"campus-assistant/internal/application/port/input"
	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"

	"github.com/google/uuid"
)

var _ input.QueryRunner = (*Runner)(nil)

const (
	completionRetries  = 1
	maxObservationLen  = 8000
	defaultToolTimeout = 15 * time.Second

	mostRelevantMarker = ">>> MOST RELEVANT ANSWER >>>"

	correctiveFormat = "Your response did not follow the expected format. " +
		"Respond with either:\nAction: <tool_name>\nAction Input: <input>\n" +
		"or:\nFinal Answer: <your answer>\nAvailable tools: database_query, web_search."

	correctiveGrounding = "You must consult a tool before giving a Final Answer. " +
		"Use database_query first for university questions."
)

// PromptFunc renders the transcript into the next completion prompt.
type PromptFunc func(t *entity.Transcript) string

// Runner drives the Thought -> Action -> Observation cycle until a grounded
// final answer is produced or a bound is hit. One Runner may serve many
// queries; each Run owns its transcript exclusively, so concurrent runs
// need no locking.
type Runner struct {
	llm         output.CompletionPort
	tools       output.ToolRegistry
	logger      output.LoggerPort
	render      PromptFunc
	toolTimeout time.Duration
}

func New(llm output.CompletionPort, tools output.ToolRegistry, logger output.LoggerPort, render PromptFunc) *Runner {
	return &Runner{
		llm:         llm,
		tools:       tools,
		logger:      logger,
		render:      render,
		toolTimeout: defaultToolTimeout,
	}
}

// WithToolTimeout overrides the per-tool-call timeout.
func (r *Runner) WithToolTimeout(d time.Duration) *Runner {
	r.toolTimeout = d
	return r
}

// Run executes one query to termination. Capability failures never escape
// as errors: every outcome is expressed through the result's termination
// reason, with an answer text that communicates inability when needed.
func (r *Runner) Run(ctx context.Context, question string, cfg entity.RunConfig) (*entity.RunResult, error) {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = entity.DefaultMaxIterations
	}

	transcript := entity.NewTranscript(uuid.NewString(), question)
	log := r.logger.WithField("run_id", transcript.ID)
	log.Info("run started", "question", question, "model", r.llm.ModelName())

	start := time.Now()
	fallbackDone := false
	iterations := 0

	for iterations < cfg.MaxIterations {
		if cfg.TimeBudget > 0 && time.Since(start) > cfg.TimeBudget {
			log.Warn("time budget exceeded", "elapsed", time.Since(start))
			return r.aborted(transcript, iterations, "the time budget was exceeded"), nil
		}
		iterations++
		log.Debug("iteration", "n", iterations, "max", cfg.MaxIterations)

		raw, err := r.complete(ctx, transcript)
		if err != nil {
			log.Error("completion failed", "error", err)
			return r.failed(transcript, iterations, err), nil
		}

		parsed := react.Parse(raw, cfg.ToolNames)
		switch parsed.Kind {
		case entity.ParsedMalformed:
			log.Warn("malformed step", "raw_len", len(raw))
			transcript.Append(entity.Step{Kind: entity.StepObservation, Text: correctiveFormat})

		case entity.ParsedFinalAnswer:
			if transcript.ObservationCount() == 0 && !react.IsSmallTalk(question) {
				// A final answer with zero observations on a substantive
				// query is the hallucination case: demand tool use instead.
				log.Warn("ungrounded final answer rejected")
				transcript.Append(entity.Step{Kind: entity.StepObservation, Text: correctiveGrounding})
				continue
			}
			if parsed.Thought != "" {
				transcript.Append(entity.Step{Kind: entity.StepThought, Text: parsed.Thought})
			}
			transcript.Append(entity.Step{Kind: entity.StepFinalAnswer, Text: parsed.FinalAnswer})
			log.Info("run completed", "iterations", iterations)
			return &entity.RunResult{
				AnswerText: parsed.FinalAnswer,
				Citations:  transcript.Citations(),
				Transcript: transcript,
				Reason:     entity.TerminationDone,
				Iterations: iterations,
			}, nil

		case entity.ParsedAction:
			if parsed.Thought != "" {
				transcript.Append(entity.Step{Kind: entity.StepThought, Text: parsed.Thought})
			}
			transcript.Append(entity.Step{
				Kind:      entity.StepAction,
				ToolName:  parsed.ActionName,
				ToolInput: parsed.ActionInput,
			})
			result := r.dispatch(ctx, log, transcript, parsed.ActionName, parsed.ActionInput)

			if r.shouldFallback(cfg, transcript, question, result, fallbackDone) {
				r.forceWebSearch(ctx, log, transcript, cfg, question)
				fallbackDone = true
			}
		}
	}

	log.Warn("iteration limit reached", "iterations", iterations)
	return r.aborted(transcript, iterations, fmt.Sprintf("the %d-step limit was reached", cfg.MaxIterations)), nil
}

// complete calls the completion backend with one bounded retry. Completion
// failures are fatal for the run: without completions there is no reasoning.
func (r *Runner) complete(ctx context.Context, transcript *entity.Transcript) (string, error) {
	prompt := r.render(transcript)
	var lastErr error
	for attempt := 0; attempt <= completionRetries; attempt++ {
		raw, err := r.llm.Complete(ctx, prompt)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("completion backend: %w", lastErr)
}

// dispatch invokes the named tool and appends its observation. Tool errors
// are recoverable: they become observations and the loop continues.
func (r *Runner) dispatch(ctx context.Context, log output.LoggerPort, transcript *entity.Transcript, name, inputText string) *entity.ToolResult {
	tool, ok := r.tools.Get(name)
	if !ok {
		log.Warn("unknown tool", "name", name)
		transcript.Append(entity.Step{
			Kind: entity.StepObservation,
			Text: fmt.Sprintf("Error: unknown tool '%s'. Available tools: database_query, web_search.", name),
		})
		return nil
	}

	log.Info("executing tool", "name", name, "input", inputText)
	toolCtx, cancel := context.WithTimeout(ctx, r.toolTimeout)
	defer cancel()

	obs, result, err := tool.Execute(toolCtx, inputText)
	if err != nil {
		log.Error("tool failed", "name", name, "error", err)
		transcript.Append(entity.Step{
			Kind:   entity.StepObservation,
			Text:   fmt.Sprintf("Error executing %s: %v", name, err),
			Source: name,
		})
		return nil
	}

	if len(obs) > maxObservationLen {
		cut := maxObservationLen
		for cut > 0 && !utf8.RuneStart(obs[cut]) {
			cut--
		}
		obs = obs[:cut] + "\n... (truncated)"
	}
	var citations []string
	if result != nil {
		citations = result.Citations
	}
	transcript.Append(entity.Step{
		Kind:      entity.StepObservation,
		Text:      obs,
		Source:    name,
		Citations: citations,
	})
	log.Debug("tool completed", "name", name, "found", result != nil && result.Found, "obs_len", len(obs))
	return result
}

// failed builds the Error termination after completion retries are spent.
func (r *Runner) failed(transcript *entity.Transcript, iterations int, err error) *entity.RunResult {
	return &entity.RunResult{
		AnswerText: "I'm unable to answer right now because the language model backend failed. Please try again later.",
		Citations:  transcript.Citations(),
		Transcript: transcript,
		Reason:     entity.TerminationError,
		Iterations: iterations,
	}
}

// aborted builds a best-effort answer from the most relevant observation,
// explicitly disclosing the bound instead of fabricating confidence.
func (r *Runner) aborted(transcript *entity.Transcript, iterations int, reason string) *entity.RunResult {
	answer := fmt.Sprintf("I couldn't fully answer this question: %s.", reason)
	if best := bestObservation(transcript); best != "" {
		answer = fmt.Sprintf("%s Here is the most relevant information I found:\n\n%s", answer, best)
	} else {
		answer += " Please check the official university catalog or contact the department directly."
	}
	return &entity.RunResult{
		AnswerText: answer,
		Citations:  transcript.Citations(),
		Transcript: transcript,
		Reason:     entity.TerminationAborted,
		Iterations: iterations,
	}
}

func bestObservation(transcript *entity.Transcript) string {
	var first string
	for _, s := range transcript.Steps {
		if s.Kind != entity.StepObservation || s.Source == "" || strings.HasPrefix(s.Text, "Error") {
			continue
		}
		if strings.Contains(s.Text, mostRelevantMarker) {
			return strings.TrimSpace(strings.ReplaceAll(s.Text, mostRelevantMarker, ""))
		}
		if first == "" {
			first = s.Text
		}
	}
	return strings.TrimSpace(first)
}
