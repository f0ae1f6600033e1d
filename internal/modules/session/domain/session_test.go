package domain_test

import (
	"testing"
	"time"

	"focus/internal/modules/session/domain"
)

func TestClampDuration(t *testing.T) {
	t.Parallel()
	cases := map[string]struct {
		requested int
		want      int
	}{
		"missing uses default": {requested: 0, want: 25},
		"negative clamps":      {requested: -5, want: 1},
		"minimum kept":         {requested: 1, want: 1},
		"explicit kept":        {requested: 50, want: 50},
	}
	for name, tc := range cases {
		if got := domain.ClampDuration(tc.requested, 25); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", name, tc.want, got)
		}
	}
}

func TestStateResponse(t *testing.T) {
	t.Parallel()
	idle := domain.State{}.Response()
	if idle.Status != domain.StatusIdle || idle.Active || idle.ScheduledAt != nil {
		t.Fatalf("unexpected idle response: %+v", idle)
	}

	at := time.Date(2026, 10, 17, 9, 25, 0, 0, time.UTC)
	active := domain.State{Active: true, ScheduledAt: at, Remaining: 90*time.Second + 400*time.Millisecond}.Response()
	if active.Status != domain.StatusActive || !active.Active {
		t.Fatalf("unexpected active response: %+v", active)
	}
	if active.ScheduledAt == nil || !active.ScheduledAt.Equal(at) || active.RemainingSeconds != 90 {
		t.Fatalf("unexpected countdown: %+v", active)
	}
}
