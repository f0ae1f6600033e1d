package out

import (
	"context"
	"errors"
	"time"

	sessionout "focus/internal/modules/session/port/out"
	"focus/internal/modules/timer/domain"
	timerin "focus/internal/modules/timer/port/in"
)

// TimerAdapter exposes the timer module both as the session's timer and as
// its alarm source.
type TimerAdapter struct {
	timer timerin.Usecase
}

var (
	_ sessionout.Timer       = (*TimerAdapter)(nil)
	_ sessionout.AlarmSource = (*TimerAdapter)(nil)
)

func NewTimerAdapter(timer timerin.Usecase) *TimerAdapter {
	return &TimerAdapter{timer: timer}
}

func (a *TimerAdapter) Create(ctx context.Context, name string, minutes int) (time.Time, error) {
	alarm, err := a.timer.Create(ctx, name, time.Duration(minutes)*time.Minute)
	if err != nil {
		return time.Time{}, err
	}
	return alarm.ScheduledAt, nil
}

func (a *TimerAdapter) Cancel(ctx context.Context, name string) error {
	_, err := a.timer.Cancel(ctx, name)
	return err
}

func (a *TimerAdapter) Get(ctx context.Context, name string) (time.Time, bool, error) {
	alarm, err := a.timer.Get(ctx, name)
	if errors.Is(err, domain.ErrAlarmNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return alarm.ScheduledAt, true, nil
}

func (a *TimerAdapter) OnAlarm(listener func(ctx context.Context, name string)) {
	a.timer.OnAlarm(listener)
}

func (a *TimerAdapter) Restore(ctx context.Context) error {
	return a.timer.Restore(ctx)
}

func (a *TimerAdapter) Close() {
	a.timer.Close()
}
