package entity

type ToolSource string

const (
	SourceStructuredLookup ToolSource = "structured_lookup"
	SourceWebSearch        ToolSource = "web_search"
)

// ToolResult is the normalized output of one capability invocation.
// Found=false means the payload communicates absence, never an answer.
type ToolResult struct {
	Source    ToolSource
	Found     bool
	Payload   string
	Citations []string
}

type TerminationReason string

const (
	TerminationDone    TerminationReason = "done"
	TerminationAborted TerminationReason = "aborted"
	TerminationError   TerminationReason = "error"
)

type RunResult struct {
	AnswerText string            `json:"answer"`
	Citations  []string          `json:"citations"`
	Transcript *Transcript       `json:"transcript"`
	Reason     TerminationReason `json:"termination_reason"`
	Iterations int               `json:"iterations"`
}

// LookupResult is what the structured lookup capability returns.
type LookupResult struct {
	Found        bool
	Records      []LookupRecord
	MatchedCount int
}

type LookupRecord struct {
	Fields   map[string]string
	Content  string
	Category string
	Source   string
	Score    float64
}

// WebSearchResult is what the web search capability returns: an
// AI-generated summary plus source snippets with URLs.
type WebSearchResult struct {
	Summary string
	Sources []WebSource
}

type WebSource struct {
	Title   string
	URL     string
	Snippet string
}
