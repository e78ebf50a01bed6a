package models

import "time"

// MemoryItemType classifies a persisted agent memory.
type MemoryItemType string

const (
	MemoryInsight MemoryItemType = "insight"
	MemorySummary MemoryItemType = "summary"
	MemoryGoal    MemoryItemType = "goal"
	MemoryOther   MemoryItemType = "other"
)

// MemoryItem is one unit of long-term agent memory for a user. The count of
// items per user never exceeds the plan's memory limit; the oldest item is
// evicted first.
type MemoryItem struct {
	Type      MemoryItemType `json:"type"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
}

// ChatTurn is one entry in the short-term conversation window. Distinct from
// persisted memory: cleared by ClearHistory, flushed on session switch.
type ChatTurn struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}
