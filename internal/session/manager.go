package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"finansmart/internal/auth"
	"finansmart/internal/log"
)

// DefaultIdleThreshold is the idle time after which a session with no
// activity is force-expired.
const DefaultIdleThreshold = 10 * time.Minute

// Session ties an opaque token to the logged-in identity and the
// owner partition it resolved to at login.
type Session struct {
	Token          string
	Identity       auth.Identity
	EffectiveOwner string

	guard *Guard
}

// Manager issues session tokens and runs one idle guard per session.
// Every authenticated request counts as a qualifying activity signal.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	expired  map[string]struct{}

	idle    time.Duration
	factory TimerFactory
	logger  *log.Logger
}

func NewManager(idle time.Duration, logger *log.Logger) *Manager {
	return NewManagerWithTimer(idle, NewWallTimer, logger)
}

// NewManagerWithTimer injects the timer factory. Tests use a fake to
// drive expiry deterministically.
func NewManagerWithTimer(idle time.Duration, factory TimerFactory, logger *log.Logger) *Manager {
	if idle <= 0 {
		idle = DefaultIdleThreshold
	}
	return &Manager{
		sessions: make(map[string]*Session),
		expired:  make(map[string]struct{}),
		idle:     idle,
		factory:  factory,
		logger:   logger.WithComponent(log.ComponentSession),
	}
}

// Begin opens a session for a freshly logged-in identity and arms its
// idle guard.
func (m *Manager) Begin(identity auth.Identity, effectiveOwner string) *Session {
	token := uuid.NewString()
	s := &Session{
		Token:          token,
		Identity:       identity,
		EffectiveOwner: effectiveOwner,
	}
	s.guard = NewGuard(m.idle, m.factory, func() { m.expire(token) })

	m.mu.Lock()
	m.sessions[token] = s
	m.mu.Unlock()

	m.logger.Info("Session started",
		log.FieldIdentity, identity.Email, log.FieldOwner, effectiveOwner,
		log.FieldSession, token)
	return s
}

// Resolve looks up a live session and counts the lookup as activity.
func (m *Manager) Resolve(token string) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	m.mu.Unlock()

	if !ok {
		return nil, false
	}
	s.guard.NotifyActivity()
	return s, true
}

// Logout tears the session down and cancels its guard. Unknown tokens
// are ignored.
func (m *Manager) Logout(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	delete(m.expired, token)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.guard.Logout()
	m.logger.Info("Session ended",
		log.FieldIdentity, s.Identity.Email, log.FieldOperation, log.OpLogout)
}

// ConsumeExpiryNotice reports, exactly once, that the token's session
// was torn down by the idle guard. The HTTP layer turns this into the
// user-visible notice.
func (m *Manager) ConsumeExpiryNotice(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expired[token]; !ok {
		return false
	}
	delete(m.expired, token)
	return true
}

func (m *Manager) expire(token string) {
	m.mu.Lock()
	s, ok := m.sessions[token]
	delete(m.sessions, token)
	if ok {
		m.expired[token] = struct{}{}
	}
	m.mu.Unlock()

	if !ok {
		return
	}
	m.logger.Info("Session expired after inactivity",
		log.FieldIdentity, s.Identity.Email, log.FieldOperation, log.OpExpire)
}
