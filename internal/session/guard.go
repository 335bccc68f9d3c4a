package session

import (
	"sync"
	"time"
)

// State is the lifecycle of one session's idle guard.
type State int

const (
	Active State = iota
	Expired
	LoggedOut
)

// Guard is an idle-timeout state machine for a single session. It is
// armed Active on creation; a qualifying activity signal resets the
// timer to the full threshold, and an elapsed timer forces expiry.
// Logout is terminal and reliably cancels the timer so a stale timer
// can never fire into a later session.
type Guard struct {
	mu       sync.Mutex
	state    State
	timer    Timer
	onExpire func()
}

// NewGuard starts a guard in the Active state with a timer armed for
// the full idle threshold. onExpire runs at most once, only when the
// threshold elapses without activity.
func NewGuard(idle time.Duration, factory TimerFactory, onExpire func()) *Guard {
	g := &Guard{state: Active, onExpire: onExpire}
	g.timer = factory(idle, g.expire)
	return g
}

// NotifyActivity re-arms the timer to the full threshold. Signals on a
// non-Active guard are ignored.
func (g *Guard) NotifyActivity() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Active {
		return
	}
	g.timer.Reset()
}

// Logout cancels the timer and moves the guard to its terminal state.
func (g *Guard) Logout() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Active {
		g.timer.Cancel()
	}
	g.state = LoggedOut
	g.onExpire = nil
}

// State returns the guard's current state.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) expire() {
	g.mu.Lock()
	if g.state != Active {
		g.mu.Unlock()
		return
	}
	g.state = Expired
	onExpire := g.onExpire
	g.onExpire = nil
	g.mu.Unlock()

	if onExpire != nil {
		onExpire()
	}
}
