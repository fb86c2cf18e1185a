package flow

import (
	"sync"
	"time"
)

// TimeoutWatchdog cancels a login flow that has received no redirect within its
// deadline. It fires its callback at most once, and never after Disarm has been
// called, so a flow that completes normally can't be interrupted by a late timer.
type TimeoutWatchdog struct {
	mu       sync.Mutex
	timer    *time.Timer
	disarmed bool
	fired    bool
}

func NewTimeoutWatchdog() *TimeoutWatchdog {
	return &TimeoutWatchdog{}
}

// Arm schedules onTimeout to run after d. Arming an already-armed watchdog resets
// its deadline.
func (w *TimeoutWatchdog) Arm(d time.Duration, onTimeout func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.disarmed = false
	w.fired = false
	w.timer = time.AfterFunc(d, func() {
		w.mu.Lock()
		if w.disarmed || w.fired {
			w.mu.Unlock()
			return
		}
		w.fired = true
		w.mu.Unlock()
		onTimeout()
	})
}

// Disarm stops the watchdog. A callback that has not yet started will never run;
// the completion signal's first-writer-wins semantics cover the narrow window
// where the timer has already fired.
func (w *TimeoutWatchdog) Disarm() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.disarmed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
