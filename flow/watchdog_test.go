package flow

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TimeoutWatchdog_fires(t *testing.T) {
	w := NewTimeoutWatchdog()
	fired := make(chan struct{})
	w.Arm(10*time.Millisecond, func() {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("watchdog never fired")
	}
}

func Test_TimeoutWatchdog_disarmPreventsFiring(t *testing.T) {
	w := NewTimeoutWatchdog()
	var fires atomic.Int32
	w.Arm(20*time.Millisecond, func() {
		fires.Add(1)
	})
	w.Disarm()

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), fires.Load())
}

func Test_TimeoutWatchdog_rearmResetsDeadline(t *testing.T) {
	w := NewTimeoutWatchdog()
	var fires atomic.Int32
	w.Arm(time.Hour, func() {
		fires.Add(1)
	})
	w.Arm(10*time.Millisecond, func() {
		fires.Add(1)
	})

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), fires.Load(), "watchdog must fire at most once")
}
