//go:build !linux

package harness

// DefaultAlarm returns a runtime timer alarm.
func DefaultAlarm() Alarm {
	return &TimerAlarm{}
}
