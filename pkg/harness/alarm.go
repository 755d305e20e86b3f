package harness

import (
	"sync"
	"time"

	"go.uber.org/atomic"
)

// Alarm sets a flag once a duration has elapsed. The flag is the only state
// shared with the measurement loop.
type Alarm interface {
	Arm(d time.Duration, stop *atomic.Bool) error
	Disarm()
}

// TimerAlarm fires from a runtime timer.
type TimerAlarm struct {
	lock  sync.Mutex
	timer *time.Timer
}

func (a *TimerAlarm) Arm(d time.Duration, stop *atomic.Bool) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.timer != nil {
		a.timer.Stop()
	}

	a.timer = time.AfterFunc(d, func() {
		stop.Store(true)
	})

	return nil
}

func (a *TimerAlarm) Disarm() {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
