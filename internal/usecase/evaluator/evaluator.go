package evaluator

import (
	"context"
	"fmt"
	"os"
	"strings"

	"campus-assistant/internal/application/port/input"
	"campus-assistant/internal/application/port/output"
	"campus-assistant/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// Case is one evaluation question with the keywords a correct answer must
// contain.
type Case struct {
	ID               string   `yaml:"id"`
	Question         string   `yaml:"question"`
	ExpectedKeywords []string `yaml:"expected_keywords"`
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

type CaseResult struct {
	ID              string
	Question        string
	Answer          string
	Passed          bool
	MissingKeywords []string
	Reason          entity.TerminationReason
	Iterations      int
}

type Report struct {
	Total         int
	Passed        int
	Accuracy      float64
	AvgIterations float64
	Results       []CaseResult
}

func LoadCases(path string) ([]Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read case file: %w", err)
	}
	var f caseFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse case file: %w", err)
	}
	return f.Cases, nil
}

// Evaluator runs canned questions through the query runner and scores the
// answers by keyword coverage. It works offline against stub collaborators,
// which is the point: the original system could only be evaluated live.
type Evaluator struct {
	runner input.QueryRunner
	logger output.LoggerPort
	runCfg entity.RunConfig
}

func New(runner input.QueryRunner, logger output.LoggerPort, runCfg entity.RunConfig) *Evaluator {
	return &Evaluator{runner: runner, logger: logger, runCfg: runCfg}
}

func (e *Evaluator) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := &Report{Total: len(cases)}
	totalIterations := 0

	for _, c := range cases {
		result, err := e.runner.Run(ctx, c.Question, e.runCfg)
		if err != nil {
			return nil, fmt.Errorf("run case %s: %w", c.ID, err)
		}

		missing := missingKeywords(result.AnswerText, c.ExpectedKeywords)
		passed := len(missing) == 0 && result.Reason == entity.TerminationDone

		report.Results = append(report.Results, CaseResult{
			ID:              c.ID,
			Question:        c.Question,
			Answer:          result.AnswerText,
			Passed:          passed,
			MissingKeywords: missing,
			Reason:          result.Reason,
			Iterations:      result.Iterations,
		})
		if passed {
			report.Passed++
		}
		totalIterations += result.Iterations

		e.logger.Info("case evaluated", "id", c.ID, "passed", passed, "reason", result.Reason)
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Passed) / float64(report.Total)
		report.AvgIterations = float64(totalIterations) / float64(report.Total)
	}
	return report, nil
}

func missingKeywords(answer string, keywords []string) []string {
	lower := strings.ToLower(answer)
	var missing []string
	for _, kw := range keywords {
		if !strings.Contains(lower, strings.ToLower(kw)) {
			missing = append(missing, kw)
		}
	}
	return missing
}

// Format renders the report for the console.
func (r *Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Evaluation: %d/%d passed (%.0f%%), avg %.1f iterations\n",
		r.Passed, r.Total, r.Accuracy*100, r.AvgIterations)
	for _, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  [%s] %s (%s, %d iterations)", status, res.ID, res.Reason, res.Iterations)
		if len(res.MissingKeywords) > 0 {
			fmt.Fprintf(&b, " missing: %s", strings.Join(res.MissingKeywords, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
