package prompts

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"campus-assistant/internal/domain/entity"
)

type templateData struct {
	University string
}

// Renderer turns a transcript into the next completion prompt: system rules,
// a few-shot example, the question, then every reasoning step so far in
// ReAct marker format, ending with a Thought cue.
type Renderer struct {
	system  string
	fewShot string
}

func NewRenderer(university string) (*Renderer, error) {
	data := templateData{University: university}

	system, err := execute("system", systemTemplate, data)
	if err != nil {
		return nil, err
	}
	fewShot, err := execute("fewshot", fewShotTemplate, data)
	if err != nil {
		return nil, err
	}
	return &Renderer{system: system, fewShot: fewShot}, nil
}

func execute(name, text string, data templateData) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", name, err)
	}
	return buf.String(), nil
}

func (r *Renderer) Render(t *entity.Transcript) string {
	var b strings.Builder
	b.WriteString(r.system)
	b.WriteString("\n\n")
	b.WriteString(r.fewShot)
	b.WriteString("\n\n")
	b.WriteString("Question: " + t.Question() + "\n")

	steps := false
	for _, s := range t.Steps {
		switch s.Kind {
		case entity.StepThought:
			b.WriteString("\nThought: " + s.Text)
			steps = true
		case entity.StepAction:
			b.WriteString("\nAction: " + s.ToolName)
			b.WriteString("\nAction Input: " + s.ToolInput)
			steps = true
		case entity.StepObservation:
			b.WriteString("\nObservation: " + s.Text)
			steps = true
		}
	}

	if steps {
		b.WriteString("\n\nContinue reasoning:\nThought:")
	} else {
		b.WriteString("\nThought:")
	}
	return b.String()
}
