package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/lectern/internal/core/domain"
	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
	"github.com/custodia-labs/lectern/internal/logger"
)

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// userPrefix introduces the question in the user message.
const userPrefix = "Answer this question about course materials: "

// AnswerOption configures an AnswerService.
type AnswerOption func(*AnswerService)

// WithMaxTokens limits the length of each model reply.
func WithMaxTokens(n int) AnswerOption {
	return func(s *AnswerService) {
		s.maxTokens = n
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) AnswerOption {
	return func(s *AnswerService) {
		s.temperature = t
	}
}

// AnswerService drives the model through at most one tool call per query.
//
// The first call offers the tool declarations. If the model asks for a tool,
// the tool runs once and the second call is made without declarations, so a
// second search cannot be requested.
type AnswerService struct {
	llm         driven.LLMService
	tools       *ToolExecutor
	sessions    *SessionService
	prompts     driven.PromptStore
	maxTokens   int
	temperature float64
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	llm driven.LLMService,
	tools *ToolExecutor,
	sessions *SessionService,
	opts ...AnswerOption,
) *AnswerService {
	s := &AnswerService{
		llm:       llm,
		tools:     tools,
		sessions:  sessions,
		maxTokens: 800,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetPromptStore sets the prompt store for customisable prompts.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// Answer answers one question.
func (s *AnswerService) Answer(ctx context.Context, query, sessionID string) (*domain.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	logger.Section("Answer")
	logger.Debug("Session: %s", sessionID)

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		logger.Warnw("load history failed", "session", sessionID, "error", err)
		history = ""
	}

	req := driven.GenerateRequest{
		System:      s.systemPrompt(history),
		Messages:    []domain.Message{{Role: domain.RoleUser, Content: userPrefix + query}},
		Tools:       ToolDeclarations(),
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	}

	answer := &domain.Answer{SessionID: sessionID}

	reply, err := s.generate(ctx, req)
	if err != nil {
		return nil, err
	}

	switch r := reply.(type) {
	case domain.FinalAnswer:
		logger.Debug("Answered without a tool")
		answer.Text = r.Text

	case domain.ToolRequest:
		logger.Debug("Model requested tool %s", r.Name)
		result := s.tools.Execute(ctx, r)
		answer.ToolUsed = r.Name
		if !result.IsError {
			answer.Sources = result.Sources
		}

		req.Messages = append(req.Messages,
			domain.Message{Role: domain.RoleAssistant, Content: r.Text, ToolRequest: &r},
			domain.Message{Role: domain.RoleTool, ToolResult: &result},
		)
		req.Tools = nil

		second, err := s.generate(ctx, req)
		if err != nil {
			return nil, err
		}
		text, err := finalText(second)
		if err != nil {
			return nil, err
		}
		answer.Text = text

	default:
		return nil, fmt.Errorf("%w: unexpected reply type %T", domain.ErrGeneration, reply)
	}

	if err := s.sessions.Append(ctx, sessionID, query, answer.Text); err != nil {
		logger.Warnw("append history failed", "session", sessionID, "error", err)
	}
	return answer, nil
}

func (s *AnswerService) generate(ctx context.Context, req driven.GenerateRequest) (domain.Reply, error) {
	reply, err := s.llm.Generate(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	if reply == nil {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrGeneration)
	}
	return reply, nil
}

// finalText extracts the answer from the second reply. A tool request there
// is treated as an answer when it carries text.
func finalText(reply domain.Reply) (string, error) {
	switch r := reply.(type) {
	case domain.FinalAnswer:
		return r.Text, nil
	case domain.ToolRequest:
		if strings.TrimSpace(r.Text) != "" {
			return r.Text, nil
		}
		return "", fmt.Errorf("%w: model requested a second tool call", domain.ErrGeneration)
	default:
		return "", fmt.Errorf("%w: unexpected reply type %T", domain.ErrGeneration, reply)
	}
}

func (s *AnswerService) systemPrompt(history string) string {
	system := s.loadPrompt(driven.PromptChatSystem)
	if history == "" {
		return system
	}
	return system + "\n\n" + fmt.Sprintf(s.loadPrompt(driven.PromptHistory), history)
}

func (s *AnswerService) loadPrompt(name string) string {
	if s.prompts != nil {
		if p, err := s.prompts.Load(name); err == nil && p != "" {
			return p
		}
	}
	return driven.DefaultPrompts[name]
}
