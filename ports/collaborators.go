package ports

import (
	"context"

	"vcfo/domain/core"
)

// AdvisorState reports the lifecycle of the document-grounded advisor index.
type AdvisorState string

const (
	AdvisorUninitialized AdvisorState = "uninitialized"
	AdvisorReady         AdvisorState = "ready"
	AdvisorUnavailable   AdvisorState = "unavailable"
)

// DocumentAdvisor answers strategy questions against a persistent similarity
// index over a local document corpus. Unavailable is a valid state
// distinguishable from a real answer; Query must never panic.
type DocumentAdvisor interface {
	State() AdvisorState
	Query(ctx context.Context, text string) (string, error)
}

// TabularQA is the bounded data-question-answering agent. Iteration and
// wall-clock caps are enforced inside the adapter; cap breaches surface as
// text, not as faults.
type TabularQA interface {
	Ask(ctx context.Context, instruction string, datasetPath string) (string, error)
}

// LLMClient is the minimal chat-completion surface the adapters consume.
type LLMClient interface {
	ChatCompletion(ctx context.Context, model string, prompt string, maxTokens int) (string, error)
}

// SessionStore resolves the dataset uploaded for a chat session.
type SessionStore interface {
	DatasetPath(ctx context.Context, session core.SessionID) (string, error)
	SetDatasetPath(ctx context.Context, session core.SessionID, path string) error
}
