// Package drafter asks an LLM for a reply draft and parses what comes back.
package drafter

import (
	"context"
	"fmt"
)

// Drafter writes a reply suggestion for a fan conversation.
type Drafter interface {
	Draft(ctx context.Context, req Request) (string, error)
}

// Message is a neutral history entry. Role is "user" for the fan and
// "assistant" for the model.
type Message struct {
	Role string
	Text string
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Request carries everything one LLM call needs. Credentials travel with the
// request because every model brings its own key.
//
// A non-nil Temperature overrides the drafter default, zero included.
type Request struct {
	APIKey       string
	Model        string
	Temperature  *float64
	MaxTokens    int
	Instructions string
	History      []Message
}

// Error is a failed LLM call, with the upstream status and body when known.
type Error struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("llm request failed with status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("llm request failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
