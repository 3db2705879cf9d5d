package output

import "context"

// CompletionPort is the text-completion capability. A provider error is
// fatal for the run after one bounded retry; without completions no further
// reasoning is possible.
type CompletionPort interface {
	Complete(ctx context.Context, prompt string) (string, error)
	ModelName() string
}
