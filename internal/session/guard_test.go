package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer lets tests drive expiry by hand instead of sleeping.
type fakeTimer struct {
	mu       sync.Mutex
	resets   int
	canceled bool
	onExpire func()
}

func (f *fakeTimer) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeTimer) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = true
}

// fire simulates the armed duration elapsing.
func (f *fakeTimer) fire() {
	f.mu.Lock()
	canceled := f.canceled
	onExpire := f.onExpire
	f.mu.Unlock()
	if !canceled && onExpire != nil {
		onExpire()
	}
}

func (f *fakeTimer) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resets
}

func (f *fakeTimer) wasCanceled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canceled
}

// fakeFactory hands out fake timers and remembers the last one.
type fakeFactory struct {
	last *fakeTimer
}

func (ff *fakeFactory) make(_ time.Duration, onExpire func()) Timer {
	ff.last = &fakeTimer{onExpire: onExpire}
	return ff.last
}

func TestGuardStartsActive(t *testing.T) {
	ff := &fakeFactory{}
	g := NewGuard(DefaultIdleThreshold, ff.make, func() {})
	assert.Equal(t, Active, g.State())
	require.NotNil(t, ff.last)
}

func TestActivityResetsTimerToFullThreshold(t *testing.T) {
	ff := &fakeFactory{}
	g := NewGuard(DefaultIdleThreshold, ff.make, func() {})

	// The pattern behind the 9m59s property: as long as each wait is
	// shorter than the threshold, the timer is always re-armed in full
	// and never fires.
	g.NotifyActivity()
	g.NotifyActivity()

	assert.Equal(t, 2, ff.last.resetCount())
	assert.Equal(t, Active, g.State())
}

func TestExpiry(t *testing.T) {
	ff := &fakeFactory{}
	expirations := 0
	g := NewGuard(DefaultIdleThreshold, ff.make, func() { expirations++ })

	ff.last.fire()
	assert.Equal(t, Expired, g.State())
	assert.Equal(t, 1, expirations)

	// A second fire must not run the callback again.
	ff.last.fire()
	assert.Equal(t, 1, expirations)

	// Activity on an expired guard is ignored.
	g.NotifyActivity()
	assert.Equal(t, Expired, g.State())
	assert.Equal(t, 0, ff.last.resetCount())
}

func TestLogoutCancelsTimer(t *testing.T) {
	ff := &fakeFactory{}
	expirations := 0
	g := NewGuard(DefaultIdleThreshold, ff.make, func() { expirations++ })

	g.Logout()
	assert.Equal(t, LoggedOut, g.State())
	assert.True(t, ff.last.wasCanceled())

	// A stale fire after logout must never expire anything.
	ff.last.fire()
	assert.Equal(t, LoggedOut, g.State())
	assert.Equal(t, 0, expirations)
}

func TestWallTimerExpires(t *testing.T) {
	expired := make(chan struct{})
	g := NewGuard(20*time.Millisecond, NewWallTimer, func() { close(expired) })

	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("wall timer did not fire")
	}
	assert.Equal(t, Expired, g.State())
}

func TestWallTimerCancel(t *testing.T) {
	fired := make(chan struct{})
	g := NewGuard(20*time.Millisecond, NewWallTimer, func() { close(fired) })
	g.Logout()

	select {
	case <-fired:
		t.Fatal("canceled timer fired")
	case <-time.After(100 * time.Millisecond):
	}
}
