// Package openai answers questions with the OpenAI chat completions API or
// any server that speaks it.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/custodia-labs/lectern/internal/adapters/driven/llm/llmhttp"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures the service. Only APIKey is required.
type LLMConfig struct {
	APIKey  string
	BaseURL string // point at Azure or a compatible server
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *llmhttp.Client
	model string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature"`
	Tools       []toolSpec          `json:"tools,omitempty"`
}

type chatCompletionMsg struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// toolCall carries its arguments as a JSON-encoded string.
type toolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function functionCall `json:"function"`
}

type functionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
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

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMsg `json:"message"`
	} `json:"choices"`
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}
	header := http.Header{"Authorization": {"Bearer " + cfg.APIKey}}
	return &LLMService{
		api:   llmhttp.New("openai", cfg.BaseURL, cfg.Timeout, header),
		model: cfg.Model,
	}, nil
}

// Generate sends one chat completion. Only the first tool call of a reply
// is honoured.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	body, err := s.buildRequest(req)
	if err != nil {
		return nil, err
	}
	var resp chatCompletionResponse
	if err := s.api.Post(ctx, "/chat/completions", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: response has no choices")
	}
	return toReply(resp.Choices[0].Message)
}

func (s *LLMService) buildRequest(req driven.GenerateRequest) (chatCompletionRequest, error) {
	out := chatCompletionRequest{
		Model:       s.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.System != "" {
		out.Messages = append(out.Messages, chatCompletionMsg{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msg, err := toAPIMessage(m)
		if err != nil {
			return out, err
		}
		out.Messages = append(out.Messages, msg)
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, toolSpec{
			Type:     "function",
			Function: toolFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	return out, nil
}

func toAPIMessage(m domain.Message) (chatCompletionMsg, error) {
	switch {
	case m.Role == domain.RoleTool && m.ToolResult != nil:
		return chatCompletionMsg{Role: "tool", Content: m.ToolResult.Content, ToolCallID: m.ToolResult.CallID}, nil
	case m.ToolRequest != nil:
		args := m.ToolRequest.Arguments
		if args == nil {
			args = map[string]any{}
		}
		encoded, err := json.Marshal(args)
		if err != nil {
			return chatCompletionMsg{}, fmt.Errorf("openai: encoding tool arguments: %w", err)
		}
		return chatCompletionMsg{
			Role:    string(domain.RoleAssistant),
			Content: m.Content,
			ToolCalls: []toolCall{{
				ID:       m.ToolRequest.ID,
				Type:     "function",
				Function: functionCall{Name: m.ToolRequest.Name, Arguments: string(encoded)},
			}},
		}, nil
	default:
		return chatCompletionMsg{Role: string(m.Role), Content: m.Content}, nil
	}
}

func toReply(msg chatCompletionMsg) (domain.Reply, error) {
	if len(msg.ToolCalls) == 0 {
		return domain.FinalAnswer{Text: msg.Content}, nil
	}
	call := msg.ToolCalls[0]
	args := map[string]any{}
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("openai: tool %s sent malformed arguments: %w", call.Function.Name, err)
		}
	}
	return domain.ToolRequest{ID: call.ID, Name: call.Function.Name, Arguments: args, Text: msg.Content}, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/models", nil)
}

func (s *LLMService) Close() error { return nil }
