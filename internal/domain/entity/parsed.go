package entity

type ParsedKind string

const (
	ParsedAction      ParsedKind = "action"
	ParsedFinalAnswer ParsedKind = "final_answer"
	ParsedMalformed   ParsedKind = "malformed"
)

// ParsedStep is the parser's verdict on one raw completion. Exactly one
// variant applies; a completion containing both an Action marker and a
// Final Answer marker always parses as Action.
type ParsedStep struct {
	Kind        ParsedKind
	Thought     string
	ActionName  string
	ActionInput string
	FinalAnswer string
	Raw         string
}
