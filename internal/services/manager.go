package services

import (
	"time"

	"motoinvest/internal/cache"
	"motoinvest/internal/log"
)

// SessionManager keeps sessions in an idle-expiring LRU keyed by user id.
type SessionManager struct {
	sessions *cache.LRUCache[*Session]
	cleanup  *cache.Manager
}

func NewSessionManager(size int, ttl time.Duration, logger *log.Logger) *SessionManager {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSession)

	sessions := cache.NewLRUCache[*Session](size, ttl)
	sessions.OnEvict(func(userID string, _ *Session) {
		logger.Debug("Session evicted", log.FieldUserID, userID)
	})
	m := &SessionManager{sessions: sessions, cleanup: cache.NewManager(logger)}
	m.cleanup.Register(sessions)
	return m
}

// Start sweeps expired sessions every interval until Stop.
func (m *SessionManager) Start(interval time.Duration) {
	m.cleanup.StartCleanup(interval)
}

func (m *SessionManager) Stop() {
	m.cleanup.Stop()
}

func (m *SessionManager) Get(userID string) (*Session, bool) {
	return m.sessions.Get(userID)
}

// Replace installs a fresh session for id, discarding any cached state. A
// mentor turn still running on the old session keeps the new one busy.
func (m *SessionManager) Replace(id Identity) *Session {
	s := newSession(id)
	if prev, ok := m.sessions.Get(id.UserID); ok {
		s.busy = prev.busy
	}
	m.sessions.Set(id.UserID, s)
	return s
}

func (m *SessionManager) Drop(userID string) {
	m.sessions.Delete(userID)
}

func (m *SessionManager) Size() int {
	return m.sessions.Size()
}
