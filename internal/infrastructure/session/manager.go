package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/tce-search/internal/core/domain"
	"github.com/kirillkom/tce-search/internal/core/ports"
)

// Manager issues sessions and ends them after an idle period or when the
// bound on live sessions is reached.
type Manager struct {
	sessions *expirable.LRU[string, *Session]
}

func NewManager(maxSessions int, idleTTL time.Duration) *Manager {
	if maxSessions < 0 {
		maxSessions = 0
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &Manager{
		sessions: expirable.NewLRU[string, *Session](maxSessions, nil, idleTTL),
	}
}

func (m *Manager) Create() ports.SearchSession {
	s := New(uuid.NewString())
	m.sessions.Add(s.ID(), s)
	return s
}

// Get returns a live session and restarts its idle timer.
func (m *Manager) Get(id string) (ports.SearchSession, error) {
	id = strings.TrimSpace(id)
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, domain.Errorf(domain.ErrSessionNotFound, "get session", "%q", id)
	}
	m.sessions.Add(id, s)
	return s, nil
}

func (m *Manager) Len() int {
	return m.sessions.Len()
}
