// Package llm requests procedure code suggestions from an OpenAI-compatible
// chat completions endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SystemPrompt is sent as the system message of every suggestion request.
const SystemPrompt = "You are a helpful CDT coding assistant."

// Defaults for OpenRouter.
const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "mistralai/mistral-7b-instruct"
)

// ErrEmptyCompletion is returned when the endpoint answers without choices.
var ErrEmptyCompletion = errors.New("no choices in completion response")

// SuggestRequest carries the clinical inputs of a suggestion.
type SuggestRequest struct {
	ClinicalNote string
	ToothNumber  string
	Surface      string
}

// Suggester returns the raw completion text for a suggestion request.
type Suggester interface {
	Suggest(ctx context.Context, req SuggestRequest) (string, error)
}

// Config holds completion client settings
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	// Timeout bounds each request. Zero leaves the HTTP client default.
	Timeout time.Duration
}

// BuildPrompt renders the user prompt. Empty fields are sent as-is.
func BuildPrompt(req SuggestRequest) string {
	return fmt.Sprintf(`You are a CDT coding assistant. Given the clinical note, suggest the most accurate CDT code.

Clinical Note: %s
Tooth Number: %s
Surface: %s

Return format:
CDT Code: <code>
Reason: <why this fits>
`, req.ClinicalNote, req.ToothNumber, req.Surface)
}
