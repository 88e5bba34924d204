package chat

import (
	"fmt"
	"sync"
)

// Role is the speaker of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation.
type Turn struct {
	Role Role
	Text string
}

// String renders the turn the way prompts and transcripts show it.
func (t Turn) String() string {
	if t.Role == RoleUser {
		return fmt.Sprintf("Human: %s", t.Text)
	}
	return fmt.Sprintf("AI: %s", t.Text)
}

// HistoryStore is an append-only conversation log.
type HistoryStore interface {
	Append(turns ...Turn)
	// Recent returns up to the last n turns in original order.
	Recent(n int) []Turn
	All() []Turn
	Reset()
}

// MemoryHistory keeps the log in memory.
type MemoryHistory struct {
	mu    sync.Mutex
	turns []Turn
}

// NewMemoryHistory creates an empty log.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{}
}

func (h *MemoryHistory) Append(turns ...Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turns...)
}

func (h *MemoryHistory) Recent(n int) []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 {
		return nil
	}
	start := max(len(h.turns)-n, 0)
	return append([]Turn(nil), h.turns[start:]...)
}

func (h *MemoryHistory) All() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Turn(nil), h.turns...)
}

func (h *MemoryHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = nil
}
