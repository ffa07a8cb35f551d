// Package ollama answers questions with a local Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/adapters/driven/llm/llmhttp"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the service. Model must support tool calling for
// the search tools to be offered; every field has a default.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *llmhttp.Client
	model string
}

type options struct {
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Tools    []toolSpec    `json:"tools,omitempty"`
	Options  *options      `json:"options,omitempty"`
}

// chatMessage answers a tool call by ToolName; Ollama calls carry no ID.
type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
}

type toolCall struct {
	Function functionCall `json:"function"`
}

// functionCall arguments are an object, not an encoded string.
type functionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolSpec struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

func NewLLMService(cfg LLMConfig) *LLMService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	return &LLMService{
		api:   llmhttp.New("ollama", cfg.BaseURL, cfg.Timeout, nil),
		model: cfg.Model,
	}
}

// Generate sends one non-streaming /api/chat request. Tool calls come back
// without IDs, so each gets a fresh one.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	body := chatRequest{Model: s.model, Messages: make([]chatMessage, 0, len(req.Messages)+1)}
	if req.System != "" {
		body.Messages = append(body.Messages, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, toAPIMessage(m))
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, toolSpec{
			Type:     "function",
			Function: toolFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	body.Options = &options{NumPredict: req.MaxTokens, Temperature: req.Temperature}

	var resp chatResponse
	if err := s.api.Post(ctx, "/api/chat", body, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("%w: ollama: %s", domain.ErrLLMUnavailable, resp.Error)
	}

	msg := resp.Message
	if len(msg.ToolCalls) == 0 {
		return domain.FinalAnswer{Text: msg.Content}, nil
	}
	fn := msg.ToolCalls[0].Function
	if fn.Arguments == nil {
		fn.Arguments = map[string]any{}
	}
	return domain.ToolRequest{
		ID:        "call_" + uuid.NewString(),
		Name:      fn.Name,
		Arguments: fn.Arguments,
		Text:      msg.Content,
	}, nil
}

func toAPIMessage(m domain.Message) chatMessage {
	switch {
	case m.Role == domain.RoleTool && m.ToolResult != nil:
		return chatMessage{Role: "tool", Content: m.ToolResult.Content, ToolName: m.ToolResult.Name}
	case m.ToolRequest != nil:
		args := m.ToolRequest.Arguments
		if args == nil {
			args = map[string]any{}
		}
		return chatMessage{
			Role:      string(domain.RoleAssistant),
			Content:   m.Content,
			ToolCalls: []toolCall{{Function: functionCall{Name: m.ToolRequest.Name, Arguments: args}}},
		}
	default:
		return chatMessage{Role: string(m.Role), Content: m.Content}
	}
}

func (s *LLMService) ModelName() string { return s.model }

// Ping only checks the server answers; a missing model surfaces on the
// first Generate.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/api/tags", nil)
}

func (s *LLMService) Close() error { return nil }
