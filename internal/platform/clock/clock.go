package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock abstracts time so timers and usecases stay deterministic in tests.
type Clock = clockwork.Clock

func System() Clock {
	return clockwork.NewRealClock()
}

// NowUTC is Now normalized to UTC, the zone every persisted timestamp uses.
func NowUTC(c Clock) time.Time {
	return c.Now().UTC()
}
