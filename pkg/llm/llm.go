// Package llm provides a provider-agnostic text generation client with retry,
// circuit breaking and JSON extraction for structured model output.
package llm

import "context"

// Request defines a single generation request.
type Request struct {
	// Name identifies the prompt for logs and metrics ("summarize_bill", ...).
	Name string

	// System is an optional system instruction.
	System string

	// Prompt is the user prompt.
	Prompt string

	// JSONMode asks the provider to return a JSON object.
	JSONMode bool

	// Temperature controls randomness. nil uses the provider default, 0 is deterministic.
	Temperature *float64

	// MaxTokens limits response length. 0 uses the provider default.
	MaxTokens int
}

// TokenUsage represents token consumption for a call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response contains the generation result.
type Response struct {
	// RequestID uniquely identifies the call for log correlation.
	RequestID string

	// Content is the generated text.
	Content string

	// Model is the model that produced the content.
	Model string

	// Usage contains token consumption, when the provider reports it.
	Usage TokenUsage

	// FinishReason indicates why generation stopped.
	FinishReason string
}

// Generator produces text for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Float64 returns a pointer to v, for Request.Temperature.
func Float64(v float64) *float64 {
	return &v
}
