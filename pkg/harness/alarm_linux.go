package harness

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/pojntfx/test-tlb/pkg/errdefs"
	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// ITimerAlarm arms a one-shot ITIMER_REAL interval timer and sets the flag
// when SIGALRM arrives.
type ITimerAlarm struct {
	lock    sync.Mutex
	signals chan os.Signal
	done    chan struct{}
}

func (a *ITimerAlarm) Arm(d time.Duration, stop *atomic.Bool) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.disarm()

	a.signals = make(chan os.Signal, 1)
	a.done = make(chan struct{})

	signal.Notify(a.signals, unix.SIGALRM)

	go func(signals chan os.Signal, done chan struct{}) {
		select {
		case <-signals:
			stop.Store(true)
		case <-done:
		}
	}(a.signals, a.done)

	if _, err := unix.Setitimer(unix.ItimerReal, unix.Itimerval{
		Value: unix.NsecToTimeval(d.Nanoseconds()),
	}); err != nil {
		a.disarm()

		return errors.Wrapf(errdefs.ErrResourceExhaustion, "could not arm interval timer: %v", err)
	}

	return nil
}

func (a *ITimerAlarm) Disarm() {
	a.lock.Lock()
	defer a.lock.Unlock()

	a.disarm()
}

func (a *ITimerAlarm) disarm() {
	if a.signals == nil {
		return
	}

	_, _ = unix.Setitimer(unix.ItimerReal, unix.Itimerval{})

	signal.Stop(a.signals)
	close(a.done)

	a.signals, a.done = nil, nil
}

// DefaultAlarm returns the platform's interval timer alarm.
func DefaultAlarm() Alarm {
	return &ITimerAlarm{}
}
