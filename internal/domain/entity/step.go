package entity

type StepKind string

const (
	StepUserQuery   StepKind = "user_query"
	StepThought     StepKind = "thought"
	StepAction      StepKind = "action"
	StepObservation StepKind = "observation"
	StepFinalAnswer StepKind = "final_answer"
)

// Step is one entry in a run's transcript. Action steps carry ToolName and
// ToolInput; Observation steps carry the tool source and any citations.
type Step struct {
	Kind      StepKind `json:"kind"`
	Text      string   `json:"text"`
	ToolName  string   `json:"tool_name,omitempty"`
	ToolInput string   `json:"tool_input,omitempty"`
	Source    string   `json:"source,omitempty"`
	Citations []string `json:"citations,omitempty"`
}

// Transcript is the append-only record of one query's reasoning steps.
// It is owned by exactly one runner instance for the lifetime of the run.
type Transcript struct {
	ID    string `json:"id"`
	Steps []Step `json:"steps"`
}

func NewTranscript(id, question string) *Transcript {
	return &Transcript{
		ID:    id,
		Steps: []Step{{Kind: StepUserQuery, Text: question}},
	}
}

func (t *Transcript) Append(step Step) {
	t.Steps = append(t.Steps, step)
}

func (t *Transcript) Question() string {
	for _, s := range t.Steps {
		if s.Kind == StepUserQuery {
			return s.Text
		}
	}
	return ""
}

// ObservationCount reports how many tool observations the run has collected.
// Corrective observations (no Source) do not count as tool consultations.
func (t *Transcript) ObservationCount() int {
	n := 0
	for _, s := range t.Steps {
		if s.Kind == StepObservation && s.Source != "" {
			n++
		}
	}
	return n
}

// FirstToolName returns the name of the first Action in the transcript,
// or "" if no tool has been invoked yet.
func (t *Transcript) FirstToolName() string {
	for _, s := range t.Steps {
		if s.Kind == StepAction {
			return s.ToolName
		}
	}
	return ""
}

func (t *Transcript) ToolInvoked(name string) bool {
	for _, s := range t.Steps {
		if s.Kind == StepAction && s.ToolName == name {
			return true
		}
	}
	return false
}

// Citations collects, in order, every citation attached to an observation.
func (t *Transcript) Citations() []string {
	var urls []string
	seen := make(map[string]bool)
	for _, s := range t.Steps {
		for _, u := range s.Citations {
			if !seen[u] {
				seen[u] = true
				urls = append(urls, u)
			}
		}
	}
	return urls
}
