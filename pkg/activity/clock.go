package activity

import "time"

type Clock interface {
	Now() time.Time
}

type DefaultClock struct{}

func (c *DefaultClock) Now() time.Time { return time.Now() }

type DummyClock struct {
	T time.Time
}

func (c *DummyClock) Now() time.Time {
	return c.T
}

// Today returns the current date of clock, or of the local wall clock if clock is nil.
func Today(clock Clock) time.Time {
	if clock == nil {
		clock = &DefaultClock{}
	}
	return Date(clock.Now())
}

// DateOrToday returns the date part of t, or today if t is the zero time.
func DateOrToday(clock Clock, t time.Time) time.Time {
	if t.IsZero() {
		return Today(clock)
	}
	return Date(t)
}
