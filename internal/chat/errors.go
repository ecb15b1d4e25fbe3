package chat

import (
	"errors"
	"net/http"

	"github.com/xaenox/chatter-assist/internal/drafter"
	"github.com/xaenox/chatter-assist/internal/storage"
)

var (
	ErrInvalidRequest = errors.New("missing required fields: model_id, fan_id, message")
	ErrNoAPIKey       = errors.New("no LLM API key configured for this model")
)

// LLMError is a failed draft request. It is never retried.
type LLMError struct {
	Err error
}

func (e *LLMError) Error() string {
	return "LLM request failed: " + e.Err.Error()
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

// Details is the upstream error body when there is one.
func (e *LLMError) Details() string {
	var upstream *drafter.Error
	if errors.As(e.Err, &upstream) && upstream.Body != "" {
		return upstream.Body
	}
	return e.Err.Error()
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNoAPIKey):
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
