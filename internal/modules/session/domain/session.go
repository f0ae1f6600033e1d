package domain

import "time"

// TimerName is the single timer whose presence defines an active session.
const TimerName = "focusTimer"

type Action string

const (
	ActionStart Action = "start_focus_session"
	ActionStop  Action = "stop_focus_session"
	ActionQuery Action = "query_state"
	// ActionRecover and ActionClearRules let the CLI run rule maintenance
	// inside the daemon, under the same lock as start and stop.
	ActionRecover    Action = "recover_rules"
	ActionClearRules Action = "clear_rules"
)

type Status string

const (
	StatusAlreadyActive Status = "Session Already Active"
	StatusStarted       Status = "Session Started"
	StatusStopped       Status = "Session Stopped"
	StatusActive        Status = "Session Active"
	StatusIdle          Status = "Session Idle"
	StatusRecovered     Status = "Rules Recovered"
	StatusRulesCleared  Status = "Rules Cleared"
)

const MinDurationMinutes = 1

// Request is the caller protocol message.
type Request struct {
	Action   Action `json:"action"`
	Duration int    `json:"duration,omitempty"`
}

type Response struct {
	Status           Status     `json:"status"`
	Active           bool       `json:"active"`
	ScheduledAt      *time.Time `json:"scheduled_at,omitempty"`
	RemainingSeconds int64      `json:"remaining_seconds,omitempty"`
	RulesRemoved     int        `json:"rules_removed,omitempty"`
}

// State is derived from the timer; it is never stored.
type State struct {
	Active      bool
	ScheduledAt time.Time
	Remaining   time.Duration
}

func (s State) Response() Response {
	if !s.Active {
		return Response{Status: StatusIdle}
	}
	at := s.ScheduledAt
	return Response{
		Status:           StatusActive,
		Active:           true,
		ScheduledAt:      &at,
		RemainingSeconds: int64(s.Remaining.Round(time.Second) / time.Second),
	}
}

// Expired reports whether a focus timer scheduled at scheduledAt has run
// out at now, whether or not its notification was delivered.
func Expired(scheduledAt, now time.Time) bool {
	return !scheduledAt.After(now)
}

// ClampDuration resolves a requested duration in minutes. Zero means
// "not given" and takes def; anything else is raised to the minimum.
func ClampDuration(requested, def int) int {
	if requested == 0 {
		requested = def
	}
	if requested < MinDurationMinutes {
		return MinDurationMinutes
	}
	return requested
}
