// Package anthropic answers questions with the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/lectern/internal/adapters/driven/llm/llmhttp"
	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-sonnet-4-20250514"
	DefaultTimeout = 120 * time.Second

	// DefaultMaxTokens is sent when the caller sets no limit; the API
	// rejects requests without one.
	DefaultMaxTokens = 1024

	anthropicVersion = "2023-06-01"
)

const (
	blockText       = "text"
	blockToolUse    = "tool_use"
	blockToolResult = "tool_result"
)

type Config struct {
	APIKey  string // required
	BaseURL string
	Model   string
	Timeout time.Duration
}

type LLMService struct {
	api   *llmhttp.Client
	model string
}

type messagesRequest struct {
	Model       string            `json:"model"`
	Messages    []messagesMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens"`
	System      string            `json:"system,omitempty"`
	Temperature float64           `json:"temperature"`
	Tools       []toolSpec        `json:"tools,omitempty"`
}

type messagesMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

// contentBlock is the union of the text, tool_use and tool_result blocks.
type contentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ID        string `json:"id,omitempty"`
	Name      string `json:"name,omitempty"`
	Input     any    `json:"input,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type toolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type responseBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type messagesResponse struct {
	Content []responseBlock `json:"content"`
}

func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)
	return &LLMService{
		api:   llmhttp.New("anthropic", cfg.BaseURL, cfg.Timeout, header),
		model: cfg.Model,
	}, nil
}

// Generate sends one /v1/messages request. Text blocks are concatenated;
// the first tool_use block, if any, turns the reply into a ToolRequest.
func (s *LLMService) Generate(ctx context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	body := messagesRequest{
		Model:       s.model,
		Messages:    make([]messagesMessage, 0, len(req.Messages)),
		MaxTokens:   req.MaxTokens,
		System:      req.System,
		Temperature: req.Temperature,
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = DefaultMaxTokens
	}
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, toAPIMessage(m))
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, toolSpec{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}

	var resp messagesResponse
	if err := s.api.Post(ctx, "/v1/messages", body, &resp); err != nil {
		return nil, err
	}
	if len(resp.Content) == 0 {
		return nil, errors.New("anthropic: response has no content")
	}
	return toReply(resp.Content)
}

// toAPIMessage maps one turn to content blocks. Tool results travel as a
// user message.
func toAPIMessage(m domain.Message) messagesMessage {
	switch {
	case m.Role == domain.RoleTool && m.ToolResult != nil:
		return messagesMessage{Role: string(domain.RoleUser), Content: []contentBlock{{
			Type:      blockToolResult,
			ToolUseID: m.ToolResult.CallID,
			Content:   m.ToolResult.Content,
			IsError:   m.ToolResult.IsError,
		}}}
	case m.ToolRequest != nil:
		var blocks []contentBlock
		if m.Content != "" {
			blocks = append(blocks, contentBlock{Type: blockText, Text: m.Content})
		}
		// input must be present even for a call without arguments
		input := m.ToolRequest.Arguments
		if input == nil {
			input = map[string]any{}
		}
		blocks = append(blocks, contentBlock{Type: blockToolUse, ID: m.ToolRequest.ID, Name: m.ToolRequest.Name, Input: input})
		return messagesMessage{Role: string(domain.RoleAssistant), Content: blocks}
	default:
		return messagesMessage{Role: string(m.Role), Content: []contentBlock{{Type: blockText, Text: m.Content}}}
	}
}

func toReply(blocks []responseBlock) (domain.Reply, error) {
	var text strings.Builder
	var call *domain.ToolRequest
	for _, b := range blocks {
		switch {
		case b.Type == blockText:
			text.WriteString(b.Text)
		case b.Type == blockToolUse && call == nil:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return nil, fmt.Errorf("anthropic: tool %s sent malformed input: %w", b.Name, err)
				}
			}
			call = &domain.ToolRequest{ID: b.ID, Name: b.Name, Arguments: args}
		}
	}
	if call == nil {
		return domain.FinalAnswer{Text: text.String()}, nil
	}
	call.Text = text.String()
	return *call, nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping lists models, which checks the key without spending tokens.
func (s *LLMService) Ping(ctx context.Context) error {
	return s.api.Get(ctx, "/v1/models", nil)
}

func (s *LLMService) Close() error { return nil }
