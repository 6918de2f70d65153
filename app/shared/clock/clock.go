package clock

import "time"

// Clock abstracts the current time so expiry and timestamps are testable.
type Clock interface {
	Now() time.Time
}

// System is the real wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// FakeClock is a Clock whose time is controlled by tests.
type FakeClock struct {
	NowFn func() time.Time
}

func (f *FakeClock) Now() time.Time {
	if f.NowFn != nil {
		return f.NowFn()
	}
	return time.Now().UTC()
}

// Fixed returns a FakeClock pinned to t.
func Fixed(t time.Time) *FakeClock {
	return &FakeClock{NowFn: func() time.Time { return t }}
}
