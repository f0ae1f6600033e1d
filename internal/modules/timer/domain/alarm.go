package domain

import (
	"errors"
	"time"
)

var (
	ErrAlarmNotFound = errors.New("alarm not found")
	ErrEmptyName     = errors.New("alarm name is empty")
	ErrInvalidDelay  = errors.New("alarm delay must be positive")
)

// Alarm is a named one-shot timer. At most one alarm exists per name.
type Alarm struct {
	Name        string
	ScheduledAt time.Time
	CreatedAt   time.Time
}

func (a Alarm) Remaining(now time.Time) time.Duration {
	d := a.ScheduledAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

func (a Alarm) Due(now time.Time) bool {
	return !now.Before(a.ScheduledAt)
}
