package session

import "time"

// Timer is a one-shot cancellable schedule armed for a fixed duration.
// Reset re-arms it for the full duration; Cancel stops it for good.
type Timer interface {
	Reset()
	Cancel()
}

// TimerFactory arms a new timer that calls onExpire when the duration
// elapses without a Reset. Tests inject a fake to drive expiry by hand.
type TimerFactory func(d time.Duration, onExpire func()) Timer

type wallTimer struct {
	d time.Duration
	t *time.Timer
}

// NewWallTimer arms a timer backed by the wall clock.
func NewWallTimer(d time.Duration, onExpire func()) Timer {
	return &wallTimer{d: d, t: time.AfterFunc(d, onExpire)}
}

func (w *wallTimer) Reset() {
	w.t.Reset(w.d)
}

func (w *wallTimer) Cancel() {
	w.t.Stop()
}
