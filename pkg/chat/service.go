// Package chat implements the plan-gated follow-up conversation over a
// user's analysis. The gate sequence is strict: check the limit, make the
// model call, and only then charge usage, so failed calls cost nothing.
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/analysis"
	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/memory"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/usage"
)

// Service handles chat messages.
type Service struct {
	llm      llm.Client
	usage    *usage.Service
	analysis *analysis.Service
	memory   *memory.Manager
	logger   logger.Logger
}

// New creates a chat service.
func New(llmClient llm.Client, usageSvc *usage.Service, analysisSvc *analysis.Service, memoryMgr *memory.Manager, log logger.Logger) *Service {
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		llm:      llmClient,
		usage:    usageSvc,
		analysis: analysisSvc,
		memory:   memoryMgr,
		logger:   log,
	}
}

// Reply is the assistant's answer plus the gating context it ran under.
type Reply struct {
	Message       string `json:"message"`
	Model         string `json:"model"`
	UsingFallback bool   `json:"usingFallback"`
	Remaining     *int   `json:"remaining,omitempty"`
}

// SendMessage runs one gated chat turn. The usage counter moves only after
// the model call succeeds.
func (s *Service) SendMessage(ctx context.Context, userID string, planID plans.PlanID, message string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.NewValidationError("message must not be empty")
	}

	check, err := s.usage.CheckLimit(ctx, userID, planID, models.UsageMessage)
	if err != nil {
		return nil, err
	}
	if !check.Allowed {
		limit := 0
		if check.Limit != nil {
			limit = *check.Limit
		}
		return nil, domain.NewLimitExceededError("message", limit)
	}

	if err := s.ensureSession(ctx, userID, planID); err != nil {
		return nil, err
	}

	messages, err := s.buildMessages(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	resp, err := s.llm.Chat(ctx, llm.ChatRequest{Model: check.Model, Messages: messages})
	if err != nil {
		return nil, domain.NewExternalCallError(err)
	}

	s.memory.AppendTurn(userID, "user", message)
	s.memory.AppendTurn(userID, "assistant", resp.Message)

	// Charge after success. A failed increment is logged, not surfaced: the
	// user already got their answer.
	if err := s.usage.Increment(ctx, userID, models.UsageMessage); err != nil {
		s.logger.Error("failed to charge message usage", "user_id", userID, "error", err)
	}

	reply := &Reply{
		Message:       resp.Message,
		Model:         check.Model,
		UsingFallback: check.UsingFallback,
	}
	if check.Limit != nil {
		remaining := *check.Limit - check.Current - 1
		if remaining < 0 {
			remaining = 0
		}
		reply.Remaining = &remaining
	}
	return reply, nil
}

// EndSession closes the caller's session, extracting memory with the plan's
// primary model when enabled. Only the caller's own session is touched.
func (s *Service) EndSession(ctx context.Context, userID string, planID plans.PlanID) error {
	return s.memory.EndSession(ctx, userID, plans.Get(planID).PrimaryModel)
}

// ClearHistory resets the caller's short-term conversation buffer only.
func (s *Service) ClearHistory(userID string) {
	s.memory.ClearHistory(userID)
}

func (s *Service) ensureSession(ctx context.Context, userID string, planID plans.PlanID) error {
	if s.memory.Session(userID) != nil {
		return nil
	}
	_, err := s.memory.StartSession(ctx, userID, planID)
	return err
}

// buildMessages assembles the model context: system prompt grounded in the
// latest analysis and long-term memory, then the conversation window, then
// the new message.
func (s *Service) buildMessages(ctx context.Context, userID, message string) ([]llm.ChatMessage, error) {
	var system strings.Builder
	system.WriteString(llm.ChatSystemPrompt)

	latest, found, err := s.analysis.GetLatest(ctx, userID)
	if err != nil {
		return nil, err
	}
	if found {
		raw, err := json.Marshal(latest)
		if err == nil {
			fmt.Fprintf(&system, "\n\nLatest analysis:\n%s", raw)
		}
	}

	if items := s.memory.MemoryItems(userID); len(items) > 0 {
		system.WriteString("\n\nKnown about this user:")
		for _, item := range items {
			fmt.Fprintf(&system, "\n- [%s] %s", item.Type, item.Content)
		}
	}

	messages := []llm.ChatMessage{{Role: "system", Content: system.String()}}
	for _, turn := range s.memory.Conversation(userID) {
		messages = append(messages, llm.ChatMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: message})

	return messages, nil
}
