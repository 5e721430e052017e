package driven

import "time"

// Clock supplies the current time. Injected so cache TTL behaviour is
// testable with a fake clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
