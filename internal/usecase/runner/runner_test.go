package runner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/application/service"
	"campus-assistant/internal/domain/entity"
	"campus-assistant/internal/infrastructure/logger"
)

type scriptedLLM struct {
	responses []string
	calls     int
	err       error
	delay     time.Duration
}

func (s *scriptedLLM) Complete(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.err != nil {
		return "", s.err
	}
	i := s.calls - 1
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return s.responses[i], nil
}

func (s *scriptedLLM) ModelName() string { return "scripted" }

type stubTool struct {
	name   string
	obs    string
	result *entity.ToolResult
	err    error
	inputs []string
}

func (t *stubTool) Name() string        { return t.name }
func (t *stubTool) Description() string { return t.name }

func (t *stubTool) Execute(_ context.Context, input string) (string, *entity.ToolResult, error) {
	t.inputs = append(t.inputs, input)
	if t.err != nil {
		return "", nil, t.err
	}
	return t.obs, t.result, nil
}

func lookupHit(payload string) *stubTool {
	return &stubTool{
		name: entity.ToolDatabaseQuery,
		obs:  payload,
		result: &entity.ToolResult{
			Source:  entity.SourceStructuredLookup,
			Found:   true,
			Payload: payload,
		},
	}
}

func lookupMiss() *stubTool {
	obs := "No relevant information found in the database."
	return &stubTool{
		name: entity.ToolDatabaseQuery,
		obs:  obs,
		result: &entity.ToolResult{
			Source:  entity.SourceStructuredLookup,
			Found:   false,
			Payload: obs,
		},
	}
}

func webHit(url string) *stubTool {
	obs := "Summary: found on the web.\n\nResult 1:\nTitle: Catalog\nURL: " + url
	return &stubTool{
		name: entity.ToolWebSearch,
		obs:  obs,
		result: &entity.ToolResult{
			Source:    entity.SourceWebSearch,
			Found:     true,
			Payload:   obs,
			Citations: []string{url},
		},
	}
}

func newTestRunner(llm output.CompletionPort, tools ...output.ToolPort) (*Runner, entity.RunConfig) {
	registry := service.NewToolRegistry()
	for _, tool := range tools {
		registry.Register(tool)
	}
	r := New(llm, registry, logger.NewNop(), func(t *entity.Transcript) string {
		return t.Question()
	})

	cfg := entity.DefaultRunConfig()
	return r, cfg
}

func hasObservation(t *entity.Transcript, substr string) bool {
	for _, s := range t.Steps {
		if s.Kind == entity.StepObservation && strings.Contains(s.Text, substr) {
			return true
		}
	}
	return false
}

func TestRun_GroundedFinalAnswer(t *testing.T) {
	db := lookupHit("CMPE 259 - Natural Language Processing: Prerequisites: CMPE 252 or CMPE 255 or CMPE 257, or instructor consent.")
	web := webHit("https://catalog.sjsu.edu")
	llm := &scriptedLLM{responses: []string{
		"Thought: check the database.\nAction: database_query\nAction Input: CMPE 259 prerequisites",
		"Thought: the observation answers it.\nFinal Answer: The prerequisite for CMPE 259 is CMPE 252 or CMPE 255 or CMPE 257, or instructor consent.",
	}}
	r, cfg := newTestRunner(llm, db, web)

	result, err := r.Run(context.Background(), "What are the prerequisites for CMPE 259?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if result.Iterations != 2 {
		t.Errorf("expected 2 iterations, got %d", result.Iterations)
	}
	if !strings.Contains(result.AnswerText, "CMPE 252 or CMPE 255 or CMPE 257, or instructor consent") {
		t.Errorf("unexpected answer %q", result.AnswerText)
	}
	if len(db.inputs) != 1 {
		t.Errorf("expected 1 database call, got %d", len(db.inputs))
	}
	if len(web.inputs) != 0 {
		t.Errorf("relevant lookup hit must not trigger web search, got %d calls", len(web.inputs))
	}
}

func TestRun_LookupMissForcesWebSearch(t *testing.T) {
	db := lookupMiss()
	web := webHit("https://catalog.sjsu.edu/cmpe-999")
	llm := &scriptedLLM{responses: []string{
		"Thought: check the database.\nAction: database_query\nAction Input: CMPE 999 prerequisites",
		"Thought: the web results cover it.\nFinal Answer: CMPE 999 is not offered; see the catalog.",
	}}
	r, cfg := newTestRunner(llm, db, web)

	result, err := r.Run(context.Background(), "What are the prerequisites for CMPE 999?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if len(web.inputs) != 1 {
		t.Fatalf("expected exactly one forced web search, got %d", len(web.inputs))
	}
	if !strings.Contains(web.inputs[0], "CMPE 999") {
		t.Errorf("fallback query lost the subject: %q", web.inputs[0])
	}
	if !strings.HasPrefix(web.inputs[0], "SJSU") {
		t.Errorf("fallback query not university-scoped: %q", web.inputs[0])
	}
	if len(result.Citations) != 1 || result.Citations[0] != "https://catalog.sjsu.edu/cmpe-999" {
		t.Errorf("expected web citation propagated, got %v", result.Citations)
	}

	// The forced search must land before the final answer in the transcript.
	webIdx, finalIdx := -1, -1
	for i, s := range result.Transcript.Steps {
		if s.Kind == entity.StepAction && s.ToolName == entity.ToolWebSearch && webIdx < 0 {
			webIdx = i
		}
		if s.Kind == entity.StepFinalAnswer {
			finalIdx = i
		}
	}
	if webIdx < 0 || finalIdx < 0 || webIdx > finalIdx {
		t.Errorf("expected web search before final answer, got web=%d final=%d", webIdx, finalIdx)
	}
}

func TestRun_FallbackHappensAtMostOnce(t *testing.T) {
	db := lookupMiss()
	web := webHit("https://www.sjsu.edu")
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: parking permits",
		"Action: database_query\nAction Input: parking permit cost",
		"Final Answer: Permits are sold through the parking portal.",
	}}
	r, cfg := newTestRunner(llm, db, web)

	result, err := r.Run(context.Background(), "How much is a parking permit?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if len(web.inputs) != 1 {
		t.Errorf("expected one forced web search total, got %d", len(web.inputs))
	}
	if len(db.inputs) != 2 {
		t.Errorf("expected 2 database calls, got %d", len(db.inputs))
	}
}

func TestRun_IrrelevantLookupTriggersFallback(t *testing.T) {
	// The lookup "succeeds" but the records answer a different question.
	db := lookupHit("Q: How do I reset my password?\nA: Use the one.SJSU portal.")
	web := webHit("https://www.sjsu.edu/registrar")
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: graduation petition deadline spring",
		"Final Answer: The petition deadline is posted by the registrar.",
	}}
	r, cfg := newTestRunner(llm, db, web)

	result, err := r.Run(context.Background(), "When is the graduation petition deadline?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(web.inputs) != 1 {
		t.Errorf("expected relevance miss to force web search, got %d calls", len(web.inputs))
	}
	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
}

func TestRun_UngroundedFinalAnswerRejected(t *testing.T) {
	db := lookupHit("The financial aid office is in the Student Services Center.")
	llm := &scriptedLLM{responses: []string{
		"Final Answer: The financial aid office is in the library basement.",
		"Action: database_query\nAction Input: financial aid office location",
		"Final Answer: The financial aid office is in the Student Services Center.",
	}}
	r, cfg := newTestRunner(llm, db, webHit("https://www.sjsu.edu"))
	cfg.RelevanceCheck = false

	result, err := r.Run(context.Background(), "Where is the financial aid office?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if result.Iterations != 3 {
		t.Errorf("expected 3 iterations, got %d", result.Iterations)
	}
	if !hasObservation(result.Transcript, "must consult a tool") {
		t.Error("expected corrective grounding observation in transcript")
	}
	if !strings.Contains(result.AnswerText, "Student Services Center") {
		t.Errorf("expected the grounded answer, got %q", result.AnswerText)
	}
}

func TestRun_SmallTalkNeedsNoTool(t *testing.T) {
	db := lookupHit("irrelevant")
	llm := &scriptedLLM{responses: []string{
		"Final Answer: Hello! Ask me anything about the university.",
	}}
	r, cfg := newTestRunner(llm, db)

	result, err := r.Run(context.Background(), "hi", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if result.Iterations != 1 {
		t.Errorf("expected 1 iteration, got %d", result.Iterations)
	}
	if len(db.inputs) != 0 {
		t.Errorf("small talk must not consult tools, got %d calls", len(db.inputs))
	}
}

func TestRun_MalformedStepGetsCorrectiveObservation(t *testing.T) {
	db := lookupHit("Orientation runs the week before classes start.")
	llm := &scriptedLLM{responses: []string{
		"I am not sure what to do here.",
		"Action: database_query\nAction Input: orientation schedule",
		"Final Answer: Orientation runs the week before classes start.",
	}}
	r, cfg := newTestRunner(llm, db, webHit("https://www.sjsu.edu"))
	cfg.RelevanceCheck = false

	result, err := r.Run(context.Background(), "When is new student orientation?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if !hasObservation(result.Transcript, "did not follow the expected format") {
		t.Error("expected corrective format observation in transcript")
	}
}

func TestRun_IterationLimitIsExact(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"unparsable rambling with no markers at all"}}
	r, cfg := newTestRunner(llm, lookupMiss())
	cfg.MaxIterations = 3

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if llm.calls != 3 {
		t.Errorf("expected exactly 3 completions, got %d", llm.calls)
	}
	if result.Reason != entity.TerminationAborted {
		t.Errorf("expected aborted, got %s", result.Reason)
	}
	if result.Iterations != 3 {
		t.Errorf("expected 3 iterations reported, got %d", result.Iterations)
	}
	if !strings.Contains(result.AnswerText, "3-step limit") {
		t.Errorf("expected the limit disclosed, got %q", result.AnswerText)
	}
}

func TestRun_AbortedAnswerUsesMostRelevantObservation(t *testing.T) {
	payload := ">>> MOST RELEVANT ANSWER >>> Result 1 [academics] (relevance: 1.00):\nCMPE 259 - Prerequisites: CMPE 255."
	db := lookupHit(payload)
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: CMPE 259 prerequisites",
		"more rambling without markers",
	}}
	r, cfg := newTestRunner(llm, db)
	cfg.MaxIterations = 2
	cfg.RelevanceCheck = false
	cfg.FallbackEnabled = false

	result, err := r.Run(context.Background(), "What are the prerequisites for CMPE 259?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationAborted {
		t.Fatalf("expected aborted, got %s", result.Reason)
	}
	if !strings.Contains(result.AnswerText, "CMPE 259 - Prerequisites: CMPE 255.") {
		t.Errorf("expected best observation surfaced, got %q", result.AnswerText)
	}
	if strings.Contains(result.AnswerText, ">>>") {
		t.Errorf("relevance marker leaked into the answer: %q", result.AnswerText)
	}
}

func TestRun_CompletionFailureAfterOneRetry(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("backend unavailable")}
	r, cfg := newTestRunner(llm, lookupMiss())

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run must not surface capability failures as errors, got %v", err)
	}

	if llm.calls != 2 {
		t.Errorf("expected 1 attempt plus 1 retry, got %d calls", llm.calls)
	}
	if result.Reason != entity.TerminationError {
		t.Errorf("expected error termination, got %s", result.Reason)
	}
	if !strings.Contains(result.AnswerText, "unable to answer") {
		t.Errorf("expected inability communicated, got %q", result.AnswerText)
	}
}

func TestRun_ToolErrorIsRecoverable(t *testing.T) {
	db := &stubTool{name: entity.ToolDatabaseQuery, err: errors.New("connection refused")}
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: library hours",
		"Final Answer: I could not reach the database; please check the library website.",
	}}
	r, cfg := newTestRunner(llm, db)

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != entity.TerminationDone {
		t.Errorf("expected done, got %s", result.Reason)
	}
	if !hasObservation(result.Transcript, "Error executing database_query") {
		t.Error("expected the tool failure recorded as an observation")
	}
}

func TestRun_UnknownToolBecomesObservation(t *testing.T) {
	// Registered in the config the parser sees, but absent from the registry.
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: library hours",
		"still rambling",
	}}
	registry := service.NewToolRegistry()
	r := New(llm, registry, logger.NewNop(), func(t *entity.Transcript) string {
		return t.Question()
	})
	cfg := entity.DefaultRunConfig()
	cfg.MaxIterations = 2

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !hasObservation(result.Transcript, "unknown tool 'database_query'") {
		t.Error("expected unknown tool observation in transcript")
	}
	if result.Reason != entity.TerminationAborted {
		t.Errorf("expected aborted, got %s", result.Reason)
	}
}

func TestRun_TimeBudget(t *testing.T) {
	llm := &scriptedLLM{
		responses: []string{"no markers here"},
		delay:     20 * time.Millisecond,
	}
	r, cfg := newTestRunner(llm, lookupMiss())
	cfg.TimeBudget = 5 * time.Millisecond
	cfg.MaxIterations = 10

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if llm.calls != 1 {
		t.Errorf("expected the budget to stop the loop after 1 completion, got %d", llm.calls)
	}
	if result.Reason != entity.TerminationAborted {
		t.Errorf("expected aborted, got %s", result.Reason)
	}
	if !strings.Contains(result.AnswerText, "time budget") {
		t.Errorf("expected the budget disclosed, got %q", result.AnswerText)
	}
}

func TestRun_LongObservationTruncatedOnRuneBoundary(t *testing.T) {
	payload := strings.Repeat("x", maxObservationLen-1) + "日本語"
	db := lookupHit(payload)
	llm := &scriptedLLM{responses: []string{
		"Action: database_query\nAction Input: library hours",
		"Final Answer: See the library website.",
	}}
	r, cfg := newTestRunner(llm, db)
	cfg.FallbackEnabled = false

	result, err := r.Run(context.Background(), "What are the library hours?", cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var obs string
	for _, s := range result.Transcript.Steps {
		if s.Kind == entity.StepObservation && s.Source == entity.ToolDatabaseQuery {
			obs = s.Text
		}
	}
	if obs == "" {
		t.Fatal("expected a database observation in the transcript")
	}
	if !strings.HasSuffix(obs, "... (truncated)") {
		t.Error("expected the observation marked as truncated")
	}
	if !utf8.ValidString(obs) {
		t.Error("truncation produced invalid UTF-8")
	}
}

func TestRun_Deterministic(t *testing.T) {
	run := func() *entity.RunResult {
		db := lookupMiss()
		web := webHit("https://www.sjsu.edu/registrar")
		llm := &scriptedLLM{responses: []string{
			"Action: database_query\nAction Input: add drop deadline",
			"Final Answer: The add/drop deadline is in the second week of classes.",
		}}
		r, cfg := newTestRunner(llm, db, web)
		result, err := r.Run(context.Background(), "When is the add drop deadline?", cfg)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		return result
	}

	a, b := run(), run()
	if a.AnswerText != b.AnswerText || a.Reason != b.Reason || a.Iterations != b.Iterations {
		t.Errorf("identical inputs produced different outcomes: %+v vs %+v", a, b)
	}
	if len(a.Transcript.Steps) != len(b.Transcript.Steps) {
		t.Errorf("transcript lengths differ: %d vs %d", len(a.Transcript.Steps), len(b.Transcript.Steps))
	}
}
