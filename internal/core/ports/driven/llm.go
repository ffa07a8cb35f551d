package driven

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/domain"
)

// LLMService is a tool-capable generative model.
type LLMService interface {
	// Generate sends one request and returns either a FinalAnswer or a
	// ToolRequest. Tools are only offered when req.Tools is non-empty.
	Generate(ctx context.Context, req GenerateRequest) (domain.Reply, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping validates the LLM service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateRequest is a single model call.
type GenerateRequest struct {
	// System is the system prompt.
	System string

	// Messages is the conversation so far.
	Messages []domain.Message

	// Tools are the declarations offered to the model. Empty withdraws tools.
	Tools []domain.ToolDeclaration

	// MaxTokens limits response length (0 = provider default).
	MaxTokens int

	// Temperature is always sent, so zero asks for greedy decoding rather
	// than the provider default.
	Temperature float64
}
