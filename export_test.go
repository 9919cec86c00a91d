package gds

import "time"

// SetSleep replaces the delay function and returns a func restoring it.
func SetSleep(f func(time.Duration)) func() {
	old := sleep
	sleep = f
	return func() { sleep = old }
}
