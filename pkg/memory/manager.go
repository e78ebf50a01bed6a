// Package memory manages per-user agent state: a bounded FIFO buffer of
// long-term memory items plus a shorter rolling window of raw chat turns
// used as conversation context. The two are distinct: ClearHistory touches
// only the conversation window, never persisted memory.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Champion2005/amicooked-sub000/pkg/ai/llm"
	"github.com/Champion2005/amicooked-sub000/pkg/domain"
	"github.com/Champion2005/amicooked-sub000/pkg/logger"
	"github.com/Champion2005/amicooked-sub000/pkg/models"
	"github.com/Champion2005/amicooked-sub000/pkg/plans"
	"github.com/Champion2005/amicooked-sub000/pkg/store"
)

// conversationWindow bounds the short-term turn buffer fed back to the model.
const conversationWindow = 12

// maxExtractedItems bounds one end-of-session extraction.
const maxExtractedItems = 5

// Session is one user's active agent context.
type Session struct {
	UserID string
	PlanID plans.PlanID

	memory       []models.MemoryItem
	conversation []models.ChatTurn
}

// Manager holds the active session of each user, keyed by user ID. Sessions
// never cross user boundaries: one user's turns, history resets, and session
// ends cannot touch another user's context. Restarting a session for the
// same user fully flushes that user's conversation buffer first.
type Manager struct {
	store  *store.Client
	llm    llm.Client
	logger logger.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(st *store.Client, llmClient llm.Client, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Default()
	}
	return &Manager{
		store:    st,
		llm:      llmClient,
		logger:   log,
		sessions: make(map[string]*Session),
	}
}

// StartSession activates a session for the user, loading persisted memory
// when the plan permits it. Any session the user already had is discarded,
// conversation buffer included.
func (m *Manager) StartSession(ctx context.Context, userID string, planID plans.PlanID) (*Session, error) {
	session := &Session{UserID: userID, PlanID: planID}

	plan := plans.Get(planID)
	if plan.MemoryEnabled {
		items, err := store.ListJSON[models.MemoryItem](ctx, m.store, store.MemoryKey(userID))
		if err != nil {
			return nil, domain.NewStoreUnavailableError(err)
		}
		session.memory = items
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if old := m.sessions[userID]; old != nil {
		old.conversation = nil
	}
	m.sessions[userID] = session
	return session, nil
}

// Session returns the user's active session, or nil.
func (m *Manager) Session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// AppendTurn records one chat turn in the user's short-term window, evicting
// the oldest turn past the window bound. A turn for a user with no active
// session is dropped.
func (m *Manager) AppendTurn(userID, role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return
	}
	session.conversation = append(session.conversation, models.ChatTurn{Role: role, Content: content})
	if len(session.conversation) > conversationWindow {
		session.conversation = session.conversation[len(session.conversation)-conversationWindow:]
	}
}

// Conversation returns a copy of the user's short-term window.
func (m *Manager) Conversation(userID string) []models.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return nil
	}
	out := make([]models.ChatTurn, len(session.conversation))
	copy(out, session.conversation)
	return out
}

// MemoryItems returns a copy of the user's loaded long-term memory.
func (m *Manager) MemoryItems(userID string) []models.MemoryItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return nil
	}
	out := make([]models.MemoryItem, len(session.memory))
	copy(out, session.memory)
	return out
}

// AddMemory persists one memory item under the plan's memory limit. Past the
// limit the oldest item is evicted, FIFO. Plans without memory drop the item.
func (m *Manager) AddMemory(ctx context.Context, userID string, item models.MemoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[userID]
	if session == nil {
		return domain.NewValidationError("no active session")
	}

	plan := plans.Get(session.PlanID)
	if !plan.MemoryEnabled || plan.MemoryLimit <= 0 {
		return nil
	}

	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if err := m.store.PushCapped(ctx, store.MemoryKey(userID), item, plan.MemoryLimit); err != nil {
		return domain.NewStoreUnavailableError(err)
	}

	session.memory = append(session.memory, item)
	if len(session.memory) > plan.MemoryLimit {
		session.memory = session.memory[len(session.memory)-plan.MemoryLimit:]
	}
	return nil
}

// ClearHistory resets only the user's short-term conversation buffer.
// Persisted memory is untouched.
func (m *Manager) ClearHistory(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session := m.sessions[userID]; session != nil {
		session.conversation = nil
	}
}

// EndSession closes the user's session. When the plan has memory enabled and
// the conversation was non-trivial, the transcript is summarized into new
// memory items through one bounded AI call; extraction failures end the
// session anyway. Ending a user with no session is a no-op.
func (m *Manager) EndSession(ctx context.Context, userID, model string) error {
	m.mu.Lock()
	session := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if session == nil {
		return nil
	}

	plan := plans.Get(session.PlanID)
	if !plan.MemoryEnabled || len(session.conversation) == 0 || model == "" {
		return nil
	}

	items, err := m.extract(ctx, session, model)
	if err != nil {
		m.logger.Warn("memory extraction failed", "user_id", session.UserID, "error", err)
		return nil
	}

	for _, item := range items {
		if err := m.store.PushCapped(ctx, store.MemoryKey(session.UserID), item, plan.MemoryLimit); err != nil {
			return domain.NewStoreUnavailableError(err)
		}
	}

	m.logger.Info("session ended", "user_id", session.UserID, "extracted_items", len(items))
	return nil
}

// DeleteMemory removes all persisted memory for a user, for account resets.
func (m *Manager) DeleteMemory(ctx context.Context, userID string) error {
	if err := m.store.Delete(ctx, store.MemoryKey(userID)); err != nil {
		return domain.NewStoreUnavailableError(err)
	}
	return nil
}

type extractionPayload struct {
	Items []struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"items"`
}

func (m *Manager) extract(ctx context.Context, session *Session, model string) ([]models.MemoryItem, error) {
	var transcript strings.Builder
	for _, turn := range session.conversation {
		fmt.Fprintf(&transcript, "%s: %s\n", turn.Role, turn.Content)
	}

	existingJSON := ""
	if len(session.memory) > 0 {
		raw, err := json.Marshal(session.memory)
		if err == nil {
			existingJSON = string(raw)
		}
	}

	raw, err := m.llm.Complete(ctx, model,
		llm.MemoryExtractionPrompt(transcript.String(), existingJSON),
		llm.MemoryExtractionSystemPrompt)
	if err != nil {
		return nil, domain.NewExternalCallError(err)
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end < start {
		return nil, domain.NewMalformedAIError("extraction response contains no JSON object")
	}

	var payload extractionPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, domain.NewMalformedAIError(fmt.Sprintf("extraction response is not valid JSON: %v", err))
	}

	if len(payload.Items) > maxExtractedItems {
		payload.Items = payload.Items[:maxExtractedItems]
	}

	now := time.Now()
	items := make([]models.MemoryItem, 0, len(payload.Items))
	for _, it := range payload.Items {
		if strings.TrimSpace(it.Content) == "" {
			continue
		}
		items = append(items, models.MemoryItem{
			Type:      normalizeType(it.Type),
			Content:   it.Content,
			CreatedAt: now,
		})
	}
	return items, nil
}

func normalizeType(t string) models.MemoryItemType {
	switch models.MemoryItemType(t) {
	case models.MemoryInsight, models.MemorySummary, models.MemoryGoal:
		return models.MemoryItemType(t)
	default:
		return models.MemoryOther
	}
}
