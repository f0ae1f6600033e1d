package dto

import "time"

type StartInput struct {
	DurationMinutes int
}

type SessionOutput struct {
	Status           string
	Active           bool
	ScheduledAt      *time.Time
	RemainingSeconds int64
}

type DaemonStatusOutput struct {
	Running    bool
	PID        int
	SocketPath string
	Session    *SessionOutput
}

type RecoverOutput struct {
	TimerActive  bool
	RulesRemoved int
	// Local is set when no daemon answered and the sweep ran in-process.
	Local bool
}

type ClearOutput struct {
	RulesRemoved int
	Local        bool
}
