package chat

import (
	"sync"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// MaxHistoryTurns is how many turns a session keeps.
const MaxHistoryTurns = 50

// History stores conversation turns per session in memory, dropping the
// oldest once a session exceeds its cap. Safe for concurrent use.
type History struct {
	max int

	mu       sync.Mutex
	sessions map[string][]domain.Turn
}

// NewHistory creates a store keeping at most max turns per session.
func NewHistory(max int) *History {
	if max <= 0 {
		max = MaxHistoryTurns
	}
	return &History{max: max, sessions: make(map[string][]domain.Turn)}
}

// Append adds turns to a session, in order.
func (h *History) Append(sessionID string, turns ...domain.Turn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := append(h.sessions[sessionID], turns...)
	if over := len(all) - h.max; over > 0 {
		all = append([]domain.Turn(nil), all[over:]...)
	}
	h.sessions[sessionID] = all
}

// Recent returns up to n of the latest turns, oldest first.
func (h *History) Recent(sessionID string, n int) []domain.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	all := h.sessions[sessionID]
	if n >= 0 && len(all) > n {
		all = all[len(all)-n:]
	}
	return append([]domain.Turn(nil), all...)
}

// All returns every stored turn of a session.
func (h *History) All(sessionID string) []domain.Turn {
	return h.Recent(sessionID, -1)
}

// Clear forgets a session.
func (h *History) Clear(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
}
